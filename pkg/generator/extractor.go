package generator

import (
	"net/http"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"google.golang.org/genai"
)

// ExtractMedia はレスポンスのパーツを順に走査し、最初のインラインメディアを返します。
// テキストしか無い場合（安全フィルターによる拒否など）は NoMediaReturnedError を返します。
func ExtractMedia(resp *genai.GenerateContentResponse) (*domain.MediaAsset, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		noMedia := &domain.NoMediaReturnedError{}
		if resp != nil && resp.PromptFeedback != nil {
			noMedia.FinishReason = string(resp.PromptFeedback.BlockReason)
		}
		return nil, noMedia
	}

	var texts []string
	var finishReason string
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if finishReason == "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			finishReason = string(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = http.DetectContentType(part.InlineData.Data)
				}
				return &domain.MediaAsset{Data: part.InlineData.Data, MIMEType: mimeType}, nil
			}
			if part.Text != "" && !part.Thought {
				texts = append(texts, strings.TrimSpace(part.Text))
			}
		}
	}

	return nil, &domain.NoMediaReturnedError{
		FinishReason: finishReason,
		Text:         strings.TrimSpace(strings.Join(texts, "\n")),
	}
}
