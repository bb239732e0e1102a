package asset

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/imgutil"
	"github.com/shouni/gemini-media-kit/pkg/netutil"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// DefaultMaxBytes を超える添付は JPEG に再圧縮されます。
const DefaultMaxBytes = 4 << 20

// HTTPClient は URL で指定された添付の取得に使います。取得は再試行しません。
// httpkit.Client がそのまま満たします。
type HTTPClient interface {
	netutil.Doer
	IsSafeURL(urlStr string) (bool, error)
}

var _ HTTPClient = (*httpkit.Client)(nil)

// Loader はフォームから渡された添付の参照(data URL / http(s) URL / パス)をバイト列に解決します。
type Loader struct {
	http      HTTPClient
	reader    remoteio.InputReader
	normalize imgutil.Options
	maxRead   int64
}

// Option は Loader の設定を変更します。
type Option func(*Loader)

// WithNormalize は画像の再圧縮設定を変更します。
func WithNormalize(opts imgutil.Options) Option {
	return func(l *Loader) { l.normalize = opts }
}

// WithMaxRead は InputReader から読み込む最大バイト数を変更します。
func WithMaxRead(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxRead = n
		}
	}
}

// NewLoader は Loader を初期化します。
// httpClient が nil なら URL の添付は、reader が nil ならパス指定の添付は受け付けません。
func NewLoader(httpClient HTTPClient, reader remoteio.InputReader, opts ...Option) *Loader {
	l := &Loader{
		http:      httpClient,
		reader:    reader,
		normalize: imgutil.Options{MaxBytes: DefaultMaxBytes, Quality: imgutil.DefaultQuality},
		maxRead:   httpkit.MaxResponseBodySize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load は source を読み込み、指定された役割の添付として返します。
func (l *Loader) Load(ctx context.Context, source string, role domain.AttachmentRole) (*domain.MediaAttachment, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, domain.NewValidationError(string(role), "attachment source is empty")
	}

	data, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	normalized, mimeType, err := imgutil.Normalize(data, l.normalize)
	if err != nil {
		if errors.Is(err, imgutil.ErrNotImage) {
			return nil, domain.NewValidationError(string(role), err.Error())
		}
		return nil, err
	}
	if len(normalized) != len(data) {
		slog.DebugContext(ctx, "添付画像を再圧縮しました", "role", role, "before", len(data), "after", len(normalized))
	}
	return &domain.MediaAttachment{Data: normalized, MIMEType: mimeType, Role: role}, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return DecodeDataURL(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetchURL(ctx, source)
	}
	return l.open(ctx, source)
}

func (l *Loader) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	if l.http == nil {
		return nil, domain.NewValidationError("source", "url attachments are not enabled")
	}
	if safe, err := l.http.IsSafeURL(rawURL); err != nil || !safe {
		reason := "unsafe url"
		if err != nil {
			reason = fmt.Sprintf("安全ではないURLが指定されました: %v", err)
		}
		return nil, domain.NewValidationError("source", reason)
	}
	data, err := netutil.FetchOnce(ctx, l.http, rawURL)
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch attachment", Err: err}
	}
	return data, nil
}

func (l *Loader) open(ctx context.Context, path string) ([]byte, error) {
	if l.reader == nil {
		return nil, domain.NewValidationError("source", fmt.Sprintf("unsupported attachment source %q", redact(path)))
	}
	rc, err := l.reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("添付ファイルを開けませんでした: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.maxRead+1))
	if err != nil {
		return nil, fmt.Errorf("添付ファイルの読み込みに失敗しました: %w", err)
	}
	if int64(len(data)) > l.maxRead {
		return nil, domain.NewValidationError("source", fmt.Sprintf("attachment exceeds %d bytes", l.maxRead))
	}
	return data, nil
}

// DecodeDataURL は "data:image/png;base64,...." 形式の文字列をデコードします。
func DecodeDataURL(s string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, domain.NewValidationError("source", "malformed data url")
	}
	if !strings.HasSuffix(header, ";base64") {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, domain.NewValidationError("source", "malformed data url payload")
		}
		return []byte(text), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// ブラウザによってはパディング無しで送ってくる
		if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, domain.NewValidationError("source", "invalid base64 in data url")
		}
	}
	return data, nil
}

func redact(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
