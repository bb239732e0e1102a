package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shouni/gemini-media-kit/pkg/domain"
)

// DefaultEnvKeys は環境変数から API キーを探す順序です。
var DefaultEnvKeys = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}

// Provider は API キーを解決します。見つからない場合は domain.ErrMissingCredential を返します。
type Provider interface {
	Resolve(ctx context.Context) (string, error)
}

// ProviderFunc は関数を Provider として扱うためのアダプターです。
type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// Static は固定値を返す Provider です。空文字なら未設定扱いになります。
type Static string

func (s Static) Resolve(context.Context) (string, error) {
	if key := strings.TrimSpace(string(s)); key != "" {
		return key, nil
	}
	return "", domain.ErrMissingCredential
}

// Chain は先頭から順に Provider を試し、最初に見つかったキーを返します。
type Chain []Provider

func (c Chain) Resolve(ctx context.Context) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		key, err := p.Resolve(ctx)
		if err == nil && key != "" {
			return key, nil
		}
		if err != nil && !errors.Is(err, domain.ErrMissingCredential) {
			return "", err
		}
	}
	return "", domain.ErrMissingCredential
}

// Env は環境変数から API キーを読み取ります。
type Env struct {
	Keys   []string
	Lookup func(string) (string, bool)
}

// NewEnv は DefaultEnvKeys を参照する Env を返します。
func NewEnv() *Env {
	return &Env{Keys: DefaultEnvKeys, Lookup: os.LookupEnv}
}

func (e *Env) Resolve(context.Context) (string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, name := range e.Keys {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", domain.ErrMissingCredential
}

type storedCredential struct {
	APIKey string `json:"api_key"`
}

// FileStore はユーザーが入力した API キーをローカルの JSON ファイルに保存します。
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore は path に保存する FileStore を作成します。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFileStore はユーザー設定ディレクトリ配下の credentials.json を使う FileStore を返します。
func DefaultFileStore() (*FileStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("ユーザー設定ディレクトリの取得に失敗しました: %w", err)
	}
	return NewFileStore(filepath.Join(dir, "gemini-media-kit", "credentials.json")), nil
}

// Path は保存先のパスを返します。
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Resolve(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.ErrMissingCredential
	}
	if err != nil {
		return "", fmt.Errorf("保存済みの認証情報を読み込めませんでした: %w", err)
	}

	var stored storedCredential
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("保存済みの認証情報が壊れています (%s): %w", s.path, err)
	}
	if key := strings.TrimSpace(stored.APIKey); key != "" {
		return key, nil
	}
	return "", domain.ErrMissingCredential
}

// Save は API キーを保存します。ファイルは所有者のみ読み書きできる権限で作成されます。
func (s *FileStore) Save(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.NewValidationError("api_key", "empty api key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}
	data, err := json.Marshal(storedCredential{APIKey: apiKey})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("認証情報の保存に失敗しました: %w", err)
	}
	return nil
}

// Clear は保存済みの API キーを削除します。ファイルが無い場合は何もしません。
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("認証情報の削除に失敗しました: %w", err)
	}
	return nil
}

// Default は保存済みの値、環境変数の順に探す標準の Chain を返します。
func Default() Chain {
	var chain Chain
	if store, err := DefaultFileStore(); err == nil {
		chain = append(chain, store)
	}
	return append(chain, NewEnv())
}

// Fingerprint はキャッシュの名前空間などに使う、キーを推測できない短い識別子を返します。
func Fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}
