package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/prompt"
)

// mockExecutor は fail に含まれるバリエーション番号(1始まり)を失敗させるのだ。
type mockExecutor struct {
	mu      sync.Mutex
	fail    map[int]bool
	prompts []string
}

func (m *mockExecutor) ExecuteRequest(ctx context.Context, req *domain.GenerationRequest) (*domain.MediaAsset, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()

	var index, total int
	if _, err := fmt.Sscanf(req.Prompt[strings.Index(req.Prompt, "[VARIATION"):], "[VARIATION %d OF %d]", &index, &total); err != nil {
		return nil, err
	}
	if m.fail[index] {
		return nil, fmt.Errorf("slot %d refused", index)
	}
	return &domain.MediaAsset{Data: []byte(fmt.Sprintf("img-%d", index)), MIMEType: "image/png"}, nil
}

func factory(base string) RequestFactory {
	return func(ctx context.Context, v prompt.Variation) (*domain.GenerationRequest, error) {
		return &domain.GenerationRequest{Kind: domain.KindImage, Model: "m", Prompt: v.Apply(base)}, nil
	}
}
