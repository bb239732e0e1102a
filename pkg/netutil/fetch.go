package netutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// Doer は HTTP リクエストを1回だけ送信します。
// *httpkit.Client の Do はリトライしないため、そのまま満たします。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*httpkit.Client)(nil)

// FetchOnce は GET リクエストを1回だけ送信し、ボディを返します。失敗しても再試行しません。
// 返すエラーにはリクエスト URL を含めません。クエリに認証情報を載せる呼び出しがあるためです。
func FetchOnce(ctx context.Context, client Doer, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストを作成できませんでした: %w", stripURL(err))
	}
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました: %w", stripURL(err))
	}
	return httpkit.HandleResponse(resp)
}

// stripURL は *url.Error から URL を取り除き、原因のエラーだけを返します。
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// Redact はエラーメッセージ中の secret を伏せ字にします。
// errors.Is / errors.As は元のエラーに対してそのまま使えます。
func Redact(err error, secret string) error {
	if err == nil || secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
