package genai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const (
	geminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	geminiTextModel   = "gemini-2.0-flash"
	geminiImageModel  = "gemini-2.0-flash-preview-image-generation"
	geminiSpeechModel = "gemini-2.5-flash-preview-tts"
	geminiVoice       = "Kore"
)

// GeminiClient implements Generator against the Google Generative Language
// API. Requests are made once; a failed call surfaces to the user, who may
// retry explicitly.
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeminiClient creates a Gemini-backed Generator.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType   string        `json:"responseMimeType,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoice `json:"prebuiltVoiceConfig"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseMIMEType: "application/json"},
	}
	resp, err := c.generate(ctx, geminiTextModel, req)
	if err != nil {
		return "", err
	}
	for _, part := range resp.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", ErrNoOutput
}

func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}
	resp, err := c.generate(ctx, geminiImageModel, req)
	if err != nil {
		return "", err
	}
	return dataURIFromParts(resp.Parts)
}

func (c *GeminiClient) GenerateSpeech(ctx context.Context, text string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoice{VoiceName: geminiVoice}},
			},
		},
	}
	resp, err := c.generate(ctx, geminiSpeechModel, req)
	if err != nil {
		return "", err
	}
	return dataURIFromParts(resp.Parts)
}

func (c *GeminiClient) generate(ctx context.Context, model string, req geminiRequest) (geminiContent, error) {
	if c.apiKey == "" {
		return geminiContent{}, fmt.Errorf("GEMINI_API_KEY not set")
	}

	body, err := sonic.Marshal(req)
	if err != nil {
		return geminiContent{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return geminiContent{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return geminiContent{}, fmt.Errorf("call generation service: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return geminiContent{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr geminiErrorResponse
		if err := sonic.Unmarshal(payload, &apiErr); err == nil && apiErr.Error.Message != "" {
			return geminiContent{}, fmt.Errorf("generation service %s: %s", apiErr.Error.Status, apiErr.Error.Message)
		}
		return geminiContent{}, fmt.Errorf("generation service returned status %d", httpResp.StatusCode)
	}

	var resp geminiResponse
	if err := sonic.Unmarshal(payload, &resp); err != nil {
		return geminiContent{}, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return geminiContent{}, ErrNoOutput
	}
	return resp.Candidates[0].Content, nil
}

func dataURIFromParts(parts []geminiPart) (string, error) {
	for _, part := range parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "application/octet-stream"
			}
			return "data:" + mime + ";base64," + part.InlineData.Data, nil
		}
	}
	return "", ErrNoOutput
}
