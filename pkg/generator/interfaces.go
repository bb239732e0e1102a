package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// ContentGenerator は generateContent 呼び出しを抽象化します。
// *genai.Client の Models フィールドがそのまま満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// FileUploader は Gemini File API とのやり取りを担当します。
// go-gemini-client の GenerativeModel がこれを満たします。
type FileUploader interface {
	UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (string, string, error)
	DeleteFile(ctx context.Context, name string) error
}

var _ FileUploader = gemini.GenerativeModel(nil)

// AssetManager は大きな添付ファイルのアップロードと削除を担当します。
type AssetManager interface {
	UploadFile(ctx context.Context, data []byte, mimeType string) (string, error)
	DeleteFile(ctx context.Context, data []byte) error
}

var (
	_ AssetManager  = (*GeminiMediaCore)(nil)
	_ ImageExecutor = (*GeminiMediaCore)(nil)
)

// ImageExecutor は組み立て済みのリクエストを1回だけ実行し、アセットを返します。
type ImageExecutor interface {
	// ExecuteRequest は、リクエストを Gemini に送信し、最初のメディアを返します。
	ExecuteRequest(ctx context.Context, req *domain.GenerationRequest) (*domain.MediaAsset, error)
}

// ImageCacher は、アップロード結果をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
