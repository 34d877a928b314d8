package vo

import (
	"errors"
	"fmt"
)

// Sentiment 情感分析
type Sentiment struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// DetectedLanguage 语言识别
type DetectedLanguage struct {
	Detected   string  `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// ContentCategory 内容分类
type ContentCategory struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResults 内容分析结果
type AnalysisResults struct {
	Sentiment         *Sentiment        `json:"sentiment,omitempty"`
	Language          *DetectedLanguage `json:"language,omitempty"`
	ContentCategories []ContentCategory `json:"content_categories,omitempty"`
}

// Validate 校验分值范围
func (a *AnalysisResults) Validate() error {
	if a == nil {
		return nil
	}
	if s := a.Sentiment; s != nil {
		if s.Score < -1 || s.Score > 1 {
			return errors.New("sentiment.score must be within [-1, 1]")
		}
		if s.Magnitude < 0 {
			return errors.New("sentiment.magnitude must not be negative")
		}
	}
	if l := a.Language; l != nil && (l.Confidence < 0 || l.Confidence > 1) {
		return errors.New("language.confidence must be within [0, 1]")
	}
	for i, c := range a.ContentCategories {
		if c.Category == "" {
			return fmt.Errorf("content_categories[%d].category is required", i)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return fmt.Errorf("content_categories[%d].confidence must be within [0, 1]", i)
		}
	}
	return nil
}
