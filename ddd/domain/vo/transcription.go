package vo

import "strings"

// TranscriptionWord 单词级时间戳
type TranscriptionWord struct {
	Word       string   `json:"word"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// TranscriptionSegment 分段转写结果
type TranscriptionSegment struct {
	Start      float64             `json:"start"`
	End        float64             `json:"end"`
	Text       string              `json:"text"`
	Confidence *float64            `json:"confidence,omitempty"`
	Words      []TranscriptionWord `json:"words,omitempty"`
}

// TranscriptionDetails 转写服务返回的完整结果
type TranscriptionDetails struct {
	Text      string                 `json:"text"`
	Segments  []TranscriptionSegment `json:"segments,omitempty"`
	WordCount int                    `json:"word_count"`
	Language  string                 `json:"language,omitempty"`
}

// Normalize 补全缺失的全文与词数
func (d TranscriptionDetails) Normalize() TranscriptionDetails {
	if strings.TrimSpace(d.Text) == "" && len(d.Segments) > 0 {
		parts := make([]string, 0, len(d.Segments))
		for _, seg := range d.Segments {
			if t := strings.TrimSpace(seg.Text); t != "" {
				parts = append(parts, t)
			}
		}
		d.Text = strings.Join(parts, " ")
	}
	if d.WordCount <= 0 {
		d.WordCount = len(strings.Fields(d.Text))
	}
	return d
}

// OverallConfidence 分段置信度的算术平均值，截断到 [0,1]。
// 没有任何分段带置信度时返回 false。
func (d TranscriptionDetails) OverallConfidence() (float64, bool) {
	var sum float64
	var n int
	for _, seg := range d.Segments {
		if seg.Confidence == nil {
			continue
		}
		sum += clamp01(*seg.Confidence)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return clamp01(sum / float64(n)), true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
