package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) *Env {
	return &Env{Keys: DefaultEnvKeys, Lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

func TestEnv_Resolve(t *testing.T) {
	ctx := context.Background()

	key, err := envFrom(map[string]string{"GOOGLE_API_KEY": "g", "API_KEY": "a"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g", key, "GOOGLE_API_KEY wins over API_KEY")

	key, err = envFrom(map[string]string{"GEMINI_API_KEY": " gem ", "GOOGLE_API_KEY": "g"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gem", key)

	_, err = envFrom(map[string]string{"GEMINI_API_KEY": "  "}).Resolve(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))

	t.Run("未保存なら MissingCredential", func(t *testing.T) {
		_, err := store.Resolve(ctx)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("保存して読み出せる", func(t *testing.T) {
		require.NoError(t, store.Save("  saved-key "))
		key, err := store.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "saved-key", key)

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("Clear で削除され、2回目もエラーにならない", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Clear())
		_, err := store.Resolve(ctx)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("空のキーは保存できない", func(t *testing.T) {
		assert.ErrorIs(t, store.Save(" "), domain.ErrValidation)
	})

	t.Run("壊れたファイルは MissingCredential とは区別される", func(t *testing.T) {
		require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))
		_, err := store.Resolve(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrMissingCredential)
	})
}

func TestChain_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("保存済みの値が環境変数より優先される", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
		require.NoError(t, store.Save("persisted"))

		key, err := Chain{store, envFrom(map[string]string{"GEMINI_API_KEY": "env"})}.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "persisted", key)
	})

	t.Run("保存が無ければ環境変数", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "c.json"))
		key, err := Chain{store, envFrom(map[string]string{"API_KEY": "env"})}.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "env", key)
	})

	t.Run("どこにも無ければ MissingCredential", func(t *testing.T) {
		_, err := Chain{nil, Static(""), envFrom(nil)}.Resolve(ctx)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("MissingCredential 以外のエラーは即座に返す", func(t *testing.T) {
		boom := errors.New("keychain locked")
		_, err := Chain{ProviderFunc(func(context.Context) (string, error) { return "", boom }), Static("x")}.Resolve(ctx)
		assert.ErrorIs(t, err, boom)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("key-a")
	assert.Len(t, a, 16)
	assert.Equal(t, a, Fingerprint("key-a"))
	assert.NotEqual(t, a, Fingerprint("key-b"))
	assert.NotContains(t, a, "key-a")
}
