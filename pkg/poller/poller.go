package poller

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/netutil"
	"google.golang.org/genai"
)

const (
	// DefaultInterval はステータス確認の間隔です。
	DefaultInterval = 10 * time.Second
	// DefaultMIMEType はダウンロードした動画の MIME が不明な場合に使います。
	DefaultMIMEType = "video/mp4"
)

// VideoSubmitter は動画生成ジョブを投入します。*genai.Models がそのまま満たします。
type VideoSubmitter interface {
	GenerateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
}

// OperationGetter はジョブの最新状態を取得します。*genai.Operations がそのまま満たします。
type OperationGetter interface {
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation, config *genai.GetOperationConfig) (*genai.GenerateVideosOperation, error)
}

// HTTPClient は生成済み動画のダウンロードに使います。リクエストは1回だけ送られます。
// *httpkit.Client がそのまま満たします。
type HTTPClient = netutil.Doer

// Options はポーリングの挙動を調整します。
type Options struct {
	// Interval は最初の待機時間です。0 以下なら DefaultInterval。
	Interval time.Duration
	// MaxAttempts はステータス確認の上限回数です。0 なら完了まで無制限に待ちます。
	MaxAttempts int
	// Backoff が 1 より大きい場合、待機時間を毎回この倍率で伸ばします。
	Backoff float64
	// MaxInterval は Backoff 適用後の待機時間の上限です。
	MaxInterval time.Duration
}

// Poller は動画ジョブを投入し、完了するまでポーリングしてから成果物を取得します。
type Poller struct {
	submitter VideoSubmitter
	getter    OperationGetter
	http      HTTPClient
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error
}

// New は Poller を初期化するのだ。
func New(submitter VideoSubmitter, getter OperationGetter, httpClient HTTPClient, opts Options) (*Poller, error) {
	if submitter == nil {
		return nil, fmt.Errorf("video submitter is required")
	}
	if getter == nil {
		return nil, fmt.Errorf("operation getter is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts < 0 {
		opts.MaxAttempts = 0
	}
	return &Poller{
		submitter: submitter,
		getter:    getter,
		http:      httpClient,
		opts:      opts,
		sleep:     sleepContext,
	}, nil
}

// SubmitAndAwait はジョブを投入し、終端状態になるまで待ってから動画のバイト列を返します。
// apiKey はダウンロード URL の認証パラメータに使われます。
func (p *Poller) SubmitAndAwait(ctx context.Context, req *domain.GenerationRequest, apiKey string) (*domain.MediaAsset, error) {
	if req == nil || req.Kind != domain.KindVideo {
		return nil, domain.NewValidationError("request", "video request is required")
	}

	image, config := videoInputs(req)
	op, err := p.submitter.GenerateVideos(ctx, req.Model, req.Prompt, image, config)
	if err != nil {
		return nil, &domain.TransportError{Op: "submit video job", Err: err}
	}
	if op == nil {
		return nil, &domain.TransportError{Op: "submit video job", Err: fmt.Errorf("empty operation handle")}
	}

	state := &domain.AsyncOperation{Name: op.Name, Status: domain.OperationSubmitted}
	slog.InfoContext(ctx, "動画生成ジョブを投入しました", "operation", state.Name, "model", req.Model)

	interval := p.opts.Interval
	for attempt := 1; !op.Done; attempt++ {
		if p.opts.MaxAttempts > 0 && attempt > p.opts.MaxAttempts {
			return nil, fmt.Errorf("operation %q did not finish after %d polls: %w", state.Name, p.opts.MaxAttempts, context.DeadlineExceeded)
		}
		if err := p.sleep(ctx, interval); err != nil {
			return nil, fmt.Errorf("動画生成の待機が中断されました: %w", err)
		}

		next, err := p.getter.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, &domain.TransportError{Op: "poll video job", Err: err}
		}
		if next != nil {
			op = next
		}
		if state.Advance(domain.OperationRunning) {
			slog.InfoContext(ctx, "動画生成ジョブが実行中です", "operation", state.Name)
		}
		slog.DebugContext(ctx, "動画生成ジョブの状態を確認しました", "operation", state.Name, "attempt", attempt, "done", op.Done)
		interval = p.nextInterval(interval)
	}

	if op.Error != nil {
		state.Advance(domain.OperationFailed)
		return nil, &domain.OperationFailedError{Operation: state.Name, Detail: op.Error}
	}
	state.Advance(domain.OperationDone)

	video, err := firstVideo(state.Name, op.Response)
	if err != nil {
		return nil, err
	}
	return p.download(ctx, state.Name, video, apiKey)
}

func (p *Poller) nextInterval(current time.Duration) time.Duration {
	if p.opts.Backoff <= 1 {
		return current
	}
	next := time.Duration(float64(current) * p.opts.Backoff)
	if p.opts.MaxInterval > 0 && next > p.opts.MaxInterval {
		return p.opts.MaxInterval
	}
	return next
}

func (p *Poller) download(ctx context.Context, operation string, video *genai.Video, apiKey string) (*domain.MediaAsset, error) {
	mimeType := video.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	if len(video.VideoBytes) > 0 {
		return &domain.MediaAsset{Data: video.VideoBytes, MIMEType: mimeType}, nil
	}

	downloadURL, err := withKey(video.URI, apiKey)
	if err != nil {
		return nil, &domain.MissingAssetError{Operation: operation, Reason: err.Error()}
	}

	slog.InfoContext(ctx, "生成された動画をダウンロードします", "operation", operation)
	data, err := netutil.FetchOnce(ctx, p.http, downloadURL)
	if err != nil {
		// ダウンロード URL には API キーが含まれる
		return nil, &domain.TransportError{Op: "download video", Err: netutil.Redact(err, apiKey)}
	}
	if len(data) == 0 {
		return nil, &domain.MissingAssetError{Operation: operation, Reason: "downloaded video is empty"}
	}
	return &domain.MediaAsset{Data: data, MIMEType: mimeType}, nil
}

// videoInputs はリクエストを GenerateVideos の引数に変換します。
func videoInputs(req *domain.GenerationRequest) (*genai.Image, *genai.GenerateVideosConfig) {
	config := &genai.GenerateVideosConfig{
		AspectRatio:    req.AspectRatio,
		NumberOfVideos: 1,
	}
	src := req.PrimaryAttachment()
	if src == nil {
		return nil, config
	}
	return &genai.Image{ImageBytes: src.Data, MIMEType: src.MIMEType}, config
}

func firstVideo(operation string, resp *genai.GenerateVideosResponse) (*genai.Video, error) {
	if resp == nil {
		return nil, &domain.MissingAssetError{Operation: operation, Reason: "operation has no response"}
	}
	for _, gv := range resp.GeneratedVideos {
		if gv == nil || gv.Video == nil {
			continue
		}
		if gv.Video.URI != "" || len(gv.Video.VideoBytes) > 0 {
			return gv.Video, nil
		}
	}
	reason := "response has no video reference"
	if len(resp.RAIMediaFilteredReasons) > 0 {
		reason = fmt.Sprintf("%s (filtered: %s)", reason, strings.Join(resp.RAIMediaFilteredReasons, "; "))
	}
	return nil, &domain.MissingAssetError{Operation: operation, Reason: reason}
}

// withKey はダウンロード URL に key パラメータを付与します。既存のクエリは保持されます。
func withKey(rawURL, apiKey string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid video uri: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid video uri %q", rawURL)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
