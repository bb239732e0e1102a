package studio

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// fakeModels は genai の Models を真似たテスト用の実装なのだ。
type fakeModels struct {
	mu      sync.Mutex
	prompts []string
	models  []string
	failOn  string
	video   *genai.GenerateVideosOperation
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var text string
	for _, c := range contents {
		for _, p := range c.Parts {
			if p.Text != "" {
				text = p.Text
			}
		}
	}
	f.prompts = append(f.prompts, text)
	f.models = append(f.models, model)

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonSafety,
			Content:      &genai.Content{Parts: []*genai.Part{{Text: "refused"}}},
		}}}, nil
	}

	mimeType := "image/png"
	if len(config.ResponseModalities) == 1 && config.ResponseModalities[0] == "AUDIO" {
		mimeType = "audio/L16;codec=pcm;rate=24000"
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: []byte{1, 2, 3, 4}}}}},
	}}}, nil
}

func (f *fakeModels) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return f.video, nil
}

func (f *fakeModels) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	return f.video, nil
}

type fakeHTTP struct {
	lastURL string
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	f.lastURL = req.URL.String()
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("mp4")),
		Request:    req,
	}, nil
}
