package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"transcription-service/ddd/domain/gateway"
	"transcription-service/ddd/domain/vo"
	"transcription-service/pkg/logger"
)

const (
	transcribePath   = "/v1/transcriptions"
	maxErrorBodySize = 4 << 10
)

// EndpointResolver 解析转写服务的基础地址
type EndpointResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// StaticEndpoint 固定地址
type StaticEndpoint string

func (s StaticEndpoint) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("transcription base_url is not configured")
	}
	return strings.TrimRight(string(s), "/"), nil
}

type transcribeRequest struct {
	MediaURL       string `json:"media_url"`
	WordTimestamps bool   `json:"word_timestamps"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTPTranscriber 通过 HTTP JSON 接口调用转写服务
type HTTPTranscriber struct {
	client   *http.Client
	resolver EndpointResolver
	apiKey   string
}

// NewHTTPTranscriber 创建转写客户端，超时由调用方的 context 控制
func NewHTTPTranscriber(resolver EndpointResolver, apiKey string, client *http.Client) gateway.Transcriber {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTranscriber{client: client, resolver: resolver, apiKey: apiKey}
}

// Transcribe 提交媒体地址并等待结果
func (t *HTTPTranscriber) Transcribe(ctx context.Context, mediaURL string) (*vo.TranscriptionDetails, error) {
	base, err := t.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve transcription service: %w", err)
	}

	payload, err := json.Marshal(transcribeRequest{MediaURL: mediaURL, WordTimestamps: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+transcribePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transcription service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		logger.Warn("transcription service returned error", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(body),
		})
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, errorText(body))
	}

	var details vo.TranscriptionDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &details, nil
}

func errorText(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	return text
}
