package poller

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/genai"
)

type mockSubmitter struct {
	op        *genai.GenerateVideosOperation
	err       error
	lastModel string
	lastImage *genai.Image
	lastCfg   *genai.GenerateVideosConfig
}

func (m *mockSubmitter) GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.lastModel = model
	m.lastImage = image
	m.lastCfg = config
	return m.op, m.err
}

// mockGetter は呼ばれるたびに states を先頭から1つずつ返すのだ。
type mockGetter struct {
	states []*genai.GenerateVideosOperation
	err    error
	calls  int
}

func (m *mockGetter) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.states) == 0 {
		return op, nil
	}
	next := m.states[0]
	m.states = m.states[1:]
	return next, nil
}

type mockHTTPClient struct {
	data    []byte
	status  int
	err     error
	lastURL string
	calls   int
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	m.lastURL = req.URL.String()
	if m.err != nil {
		// net/http と同じく URL 付きのエラーで包む
		return nil, &url.Error{Op: req.Method, URL: m.lastURL, Err: m.err}
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(bytes.NewReader(m.data)),
		ContentLength: int64(len(m.data)),
		Request:       req,
	}, nil
}

// recordSleep は待機せずに待機時間だけを記録するのだ。
func recordSleep(p *Poller) *[]time.Duration {
	var waits []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		waits = append(waits, d)
		return nil
	}
	return &waits
}

func running(name string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{Name: name}
}

func doneWithURI(name, uri string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: name,
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}
}
