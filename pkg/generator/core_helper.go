package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"google.golang.org/genai"
)

// ExecuteRequest は画像リクエストを generateContent で実行し、最初の画像を返します。
func (c *GeminiMediaCore) ExecuteRequest(ctx context.Context, req *domain.GenerationRequest) (*domain.MediaAsset, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "request is nil")
	}

	parts, err := c.BuildParts(ctx, req)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		},
	}

	slog.InfoContext(ctx, "Geminiに画像生成をリクエストします",
		"model", req.Model, "tier", req.Tier, "attachments", len(req.Attachments), "parts", len(parts))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.content.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, &domain.TransportError{Op: "generate content", Err: err}
	}

	asset, err := ExtractMedia(resp)
	if err != nil {
		slog.WarnContext(ctx, "Geminiの応答に画像が含まれていませんでした", "model", req.Model, "error", err)
		return nil, err
	}
	return asset, nil
}

// BuildParts はリクエストを genai のパーツ列に変換します。
// ラベルはそれぞれの添付の直前に置かれ、指示テキストは必ず最後になります。
func (c *GeminiMediaCore) BuildParts(ctx context.Context, req *domain.GenerationRequest) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(req.Attachments)*2+1)
	for i, att := range req.Attachments {
		if att.Label != "" {
			parts = append(parts, genai.NewPartFromText(att.Label))
		}
		part, err := c.attachmentPart(ctx, att)
		if err != nil {
			return nil, fmt.Errorf("attachment %d (%s): %w", i, att.Role, err)
		}
		parts = append(parts, part)
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return parts, nil
}

// attachmentPart は添付をインラインか File API 参照のパーツに変換します。
func (c *GeminiMediaCore) attachmentPart(ctx context.Context, att domain.MediaAttachment) (*genai.Part, error) {
	mimeType := att.MIMEType
	if mimeType == "" {
		mimeType = detectMIME(att.Data)
	}

	if len(att.Data) <= c.inlineLimit || c.files == nil {
		return genai.NewPartFromBytes(att.Data, mimeType), nil
	}

	slog.InfoContext(ctx, "添付がインライン上限を超えたため File API を使用します",
		"bytes", len(att.Data), "limit", c.inlineLimit, "role", att.Role)
	uri, err := c.UploadFile(ctx, att.Data, mimeType)
	if err != nil {
		return nil, err
	}
	return genai.NewPartFromURI(uri, mimeType), nil
}
