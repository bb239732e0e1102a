package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/wavutil"
	"google.golang.org/genai"
)

// GeminiGenerator は、画像の単発生成(GenerateImage)と
// 音声合成(GenerateSpeech)の両方を担当する統合ジェネレーターです。
type GeminiGenerator struct {
	builder     *RequestBuilder
	executor    ImageExecutor
	content     ContentGenerator
	speechModel string
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(builder *RequestBuilder, executor ImageExecutor, content ContentGenerator) (*GeminiGenerator, error) {
	if builder == nil {
		return nil, fmt.Errorf("builder (RequestBuilder) is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("executor (ImageExecutor) is required")
	}
	if content == nil {
		return nil, fmt.Errorf("content (ContentGenerator) is required")
	}

	return &GeminiGenerator{
		builder:     builder,
		executor:    executor,
		content:     content,
		speechModel: SpeechModel,
	}, nil
}

// GenerateImage はパラメータからリクエストを組み立て、1枚の画像を生成します。
func (g *GeminiGenerator) GenerateImage(ctx context.Context, p ImageParams) (*domain.MediaAsset, error) {
	req, err := g.builder.BuildImageRequest(p)
	if err != nil {
		return nil, err
	}

	asset, err := g.executor.ExecuteRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Gemini画像生成エラー: %w", err)
	}
	return asset, nil
}

// GenerateSpeech はテキストを音声合成し、WAV に変換したアセットを返します。
func (g *GeminiGenerator) GenerateSpeech(ctx context.Context, text, voice string) (*domain.MediaAsset, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("text", "text to synthesize is empty")
	}
	if voice == "" {
		voice = DefaultVoice
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	slog.InfoContext(ctx, "Geminiに音声合成をリクエストします", "model", g.speechModel, "voice", voice, "chars", len(text))
	resp, err := g.content.GenerateContent(ctx, g.speechModel, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini音声合成エラー: %w", &domain.TransportError{Op: "generate speech", Err: err})
	}

	pcm, err := ExtractMedia(resp)
	if err != nil {
		return nil, fmt.Errorf("Gemini音声合成エラー: %w", err)
	}

	rate := sampleRateFromMIME(pcm.MIMEType, wavutil.SpeechSampleRate)
	return &domain.MediaAsset{
		Data:     wavutil.EncodePCM(pcm.Data, rate, wavutil.SpeechChannels),
		MIMEType: "audio/wav",
	}, nil
}
