package generator

import (
	"errors"
	"testing"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"google.golang.org/genai"
)

func TestExtractMedia(t *testing.T) {
	t.Run("正常系: 最初のインラインデータを返す", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("first")}},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("second")}},
				}},
			}},
		}

		asset, err := ExtractMedia(resp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(asset.Data) != "first" || asset.MIMEType != "image/png" {
			t.Errorf("parsed data mismatch: %+v", asset)
		}
	})

	t.Run("MIME が空なら内容から推定する", func(t *testing.T) {
		asset, err := ExtractMedia(imageResponse(pngHeader, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if asset.MIMEType != "image/png" {
			t.Errorf("expected image/png, got %s", asset.MIMEType)
		}
	})

	t.Run("異常系: テキストのみの応答は NoMediaReturnedError", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
				Content:      &genai.Content{Parts: []*genai.Part{{Text: "I can't help with that."}}},
			}},
		}

		_, err := ExtractMedia(resp)
		var noMedia *domain.NoMediaReturnedError
		if !errors.As(err, &noMedia) {
			t.Fatalf("expected NoMediaReturnedError, got %v", err)
		}
		if noMedia.FinishReason != "SAFETY" || noMedia.Text != "I can't help with that." {
			t.Errorf("unexpected detail: %+v", noMedia)
		}
		if errors.Is(err, domain.ErrTransport) {
			t.Error("no-media must be distinguishable from transport failures")
		}
	})

	t.Run("異常系: 候補なし・nil はどちらも NoMediaReturnedError", func(t *testing.T) {
		blocked := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "PROHIBITED_CONTENT"},
		}
		for _, resp := range []*genai.GenerateContentResponse{nil, {}, blocked} {
			if _, err := ExtractMedia(resp); !errors.Is(err, domain.ErrNoMediaReturned) {
				t.Errorf("expected ErrNoMediaReturned, got %v", err)
			}
		}

		_, err := ExtractMedia(blocked)
		var noMedia *domain.NoMediaReturnedError
		if errors.As(err, &noMedia) && noMedia.FinishReason != "PROHIBITED_CONTENT" {
			t.Errorf("block reason should be reported, got %q", noMedia.FinishReason)
		}
	})

	t.Run("空データのインラインは無視して後続を探す", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png"}}}}},
				{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: []byte("ok")}}}}},
			},
		}
		asset, err := ExtractMedia(resp)
		if err != nil || string(asset.Data) != "ok" {
			t.Errorf("expected second candidate's image, got %v / %v", asset, err)
		}
	})
}
