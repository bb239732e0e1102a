package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
)

// GeminiMediaCore は AssetManager と ImageExecutor の両方の責務を担う基盤クラスです。
type GeminiMediaCore struct {
	content     ContentGenerator
	files       FileUploader
	cache       ImageCacher
	expiration  time.Duration
	inlineLimit int
}

// CoreOption は GeminiMediaCore の設定を変更します。
type CoreOption func(*GeminiMediaCore)

// WithInlineLimit はインライン送信できる添付の最大バイト数を変更します。
func WithInlineLimit(n int) CoreOption {
	return func(c *GeminiMediaCore) {
		if n > 0 {
			c.inlineLimit = n
		}
	}
}

// NewGeminiMediaCore は依存関係を注入して GeminiMediaCore を初期化します。
// files と cache は nil を許容します（すべてインライン送信・キャッシュなし）。
func NewGeminiMediaCore(content ContentGenerator, files FileUploader, cache ImageCacher, cacheTTL time.Duration, opts ...CoreOption) (*GeminiMediaCore, error) {
	if content == nil {
		return nil, fmt.Errorf("content generator is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	c := &GeminiMediaCore{
		content:     content,
		files:       files,
		cache:       cache,
		expiration:  cacheTTL,
		inlineLimit: InlineDataLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadFile は添付データを Gemini File API にアップロードし、URI を返します。
// 同じ内容のデータはキャッシュ済みの URI を再利用します。
func (c *GeminiMediaCore) UploadFile(ctx context.Context, data []byte, mimeType string) (string, error) {
	if c.files == nil {
		return "", fmt.Errorf("file uploader is not configured")
	}

	key := contentKey(data)
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyFileAPIURI + key); ok {
			if uri, ok := val.(string); ok {
				return uri, nil
			}
		}
	}

	uri, fileName, err := c.files.UploadFile(ctx, data, mimeType, "attachment-"+key[:12])
	if err != nil {
		return "", &domain.TransportError{Op: "upload attachment", Err: err}
	}

	// URI（参照用）と Name（削除用）の両方をキャッシュ
	if c.cache != nil {
		c.cache.Set(cacheKeyFileAPIURI+key, uri, c.expiration)
		c.cache.Set(cacheKeyFileAPIName+key, fileName, c.expiration)
	}
	return uri, nil
}

// DeleteFile はキャッシュされたファイル名を使用して File API からファイルを削除します。
func (c *GeminiMediaCore) DeleteFile(ctx context.Context, data []byte) error {
	if c.files == nil {
		return fmt.Errorf("file uploader is not configured")
	}
	key := contentKey(data)
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKeyFileAPIName + key); ok {
			if name, ok := val.(string); ok {
				if err := c.files.DeleteFile(ctx, name); err != nil {
					return &domain.TransportError{Op: "delete attachment", Err: err}
				}
				c.cache.Set(cacheKeyFileAPIURI+key, nil, time.Nanosecond)
				return nil
			}
		}
	}

	// キャッシュに無い場合は File API 上の名前が分からないため削除できない
	return fmt.Errorf("cannot determine file name for deletion, attachment %s not found in cache", key[:12])
}
