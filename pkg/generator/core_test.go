package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 注意: mockContentGenerator, mockFileUploader, mockCache は
// mocks_test.go で定義されているため、ここでは定義不要です。

func TestNewGeminiMediaCore(t *testing.T) {
	t.Run("ContentGenerator が nil ならエラー", func(t *testing.T) {
		_, err := NewGeminiMediaCore(nil, nil, nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("TTL が 0 以下なら既定値を使う", func(t *testing.T) {
		core, err := NewGeminiMediaCore(&mockContentGenerator{}, nil, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultCacheTTL, core.expiration)
		assert.Equal(t, InlineDataLimit, core.inlineLimit)
	})

	t.Run("WithInlineLimit で上限を変更できる", func(t *testing.T) {
		core, err := NewGeminiMediaCore(&mockContentGenerator{}, nil, nil, time.Hour, WithInlineLimit(8))
		require.NoError(t, err)
		assert.Equal(t, 8, core.inlineLimit)
	})
}

func TestGeminiMediaCore_UploadFile(t *testing.T) {
	ctx := context.Background()
	cache := &mockCache{data: make(map[string]any)}
	files := &mockFileUploader{}

	core, err := NewGeminiMediaCore(&mockContentGenerator{}, files, cache, time.Hour)
	require.NoError(t, err, "failed to create core")

	// モック (mockFileUploader.UploadFile) が返す期待値
	const mockURI = "https://generativelanguage.googleapis.com/v1beta/files/mock-id"
	data := []byte("fake-image-binary")

	t.Run("キャッシュがない場合はアップロードが実行される", func(t *testing.T) {
		uri, err := core.UploadFile(ctx, data, "image/png")

		require.NoError(t, err)
		assert.Equal(t, 1, files.uploadCount)
		assert.Equal(t, mockURI, uri)

		cachedURI, ok := cache.Get(cacheKeyFileAPIURI + contentKey(data))
		assert.True(t, ok, "should be cached")
		assert.Equal(t, uri, cachedURI)
	})

	t.Run("同じ内容ならアップロードをスキップする", func(t *testing.T) {
		uri, err := core.UploadFile(ctx, data, "image/png")

		require.NoError(t, err)
		assert.Equal(t, 1, files.uploadCount, "UploadFile should NOT be called again when cached")
		assert.Equal(t, mockURI, uri)
	})

	t.Run("アップロード失敗は TransportError", func(t *testing.T) {
		failing := &mockFileUploader{err: errors.New("quota exceeded")}
		c, err := NewGeminiMediaCore(&mockContentGenerator{}, failing, nil, time.Hour)
		require.NoError(t, err)

		_, err = c.UploadFile(ctx, []byte("other"), "image/png")
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("FileUploader 未設定ならエラー", func(t *testing.T) {
		c, err := NewGeminiMediaCore(&mockContentGenerator{}, nil, nil, time.Hour)
		require.NoError(t, err)
		_, err = c.UploadFile(ctx, data, "image/png")
		assert.Error(t, err)
	})
}

func TestGeminiMediaCore_DeleteFile(t *testing.T) {
	ctx := context.Background()
	cache := &mockCache{data: make(map[string]any)}
	files := &mockFileUploader{}
	core, err := NewGeminiMediaCore(&mockContentGenerator{}, files, cache, time.Hour)
	require.NoError(t, err)

	t.Run("キャッシュされたファイル名で削除が実行される", func(t *testing.T) {
		data := []byte("to-be-deleted")
		cache.Set(cacheKeyFileAPIName+contentKey(data), "files/abc-123", time.Hour)

		err := core.DeleteFile(ctx, data)

		require.NoError(t, err)
		assert.True(t, files.deleteCalled)
		assert.Equal(t, "files/abc-123", files.lastFileName)
	})

	t.Run("キャッシュにない場合はエラーを返す", func(t *testing.T) {
		files.deleteCalled = false
		err := core.DeleteFile(ctx, []byte("unknown"))

		assert.Error(t, err)
		assert.False(t, files.deleteCalled)
		assert.Contains(t, err.Error(), "cannot determine file name")
	})
}
