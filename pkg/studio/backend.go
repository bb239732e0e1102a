package studio

import (
	"context"
	"fmt"

	"github.com/shouni/gemini-media-kit/pkg/generator"
	"github.com/shouni/gemini-media-kit/pkg/poller"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// Backend は1つの API キーに紐づく Gemini への接続一式です。
type Backend struct {
	Content    generator.ContentGenerator
	Files      generator.FileUploader
	Videos     poller.VideoSubmitter
	Operations poller.OperationGetter
}

// BackendFactory は API キーから Backend を作成します。
type BackendFactory func(ctx context.Context, apiKey string) (*Backend, error)

// NewGeminiBackend は genai SDK と File API クライアントで Backend を構築します。
func NewGeminiBackend(ctx context.Context, apiKey string) (*Backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}

	files, err := gemini.NewClient(ctx, gemini.Config{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("File APIクライアントの初期化に失敗しました: %w", err)
	}

	return &Backend{
		Content:    client.Models,
		Files:      files,
		Videos:     client.Models,
		Operations: client.Operations,
	}, nil
}
