package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"google.golang.org/genai"
)

// --- Mocks ---

type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type mockContentGenerator struct {
	calls []generateCall
	resp  *genai.GenerateContentResponse
	err   error
}

func (m *mockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls = append(m.calls, generateCall{model: model, contents: contents, config: config})
	return m.resp, m.err
}

type mockFileUploader struct {
	uploadCount  int
	deleteCalled bool
	lastFileName string
	err          error
}

func (m *mockFileUploader) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	m.uploadCount++
	return "https://generativelanguage.googleapis.com/v1beta/files/mock-id", "files/mock-id", nil
}

func (m *mockFileUploader) DeleteFile(ctx context.Context, name string) error {
	m.deleteCalled = true
	m.lastFileName = name
	return m.err
}

type mockExecutor struct {
	lastReq *domain.GenerationRequest
	asset   *domain.MediaAsset
	err     error
}

func (m *mockExecutor) ExecuteRequest(ctx context.Context, req *domain.GenerationRequest) (*domain.MediaAsset, error) {
	m.lastReq = req
	return m.asset, m.err
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// imageResponse は1枚の画像を含むレスポンスを作るヘルパーなのだ。
func imageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

func attachment(tag string) *domain.MediaAttachment {
	return &domain.MediaAttachment{Data: []byte(tag), MIMEType: "image/png"}
}

func textOnlyResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
