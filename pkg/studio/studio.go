package studio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-media-kit/pkg/batch"
	"github.com/shouni/gemini-media-kit/pkg/credential"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
	"github.com/shouni/gemini-media-kit/pkg/poller"
	"github.com/shouni/gemini-media-kit/pkg/prompt"
)

// Studio は画像・動画・音声の生成フローをまとめる入口です。
// 呼び出しごとに認証情報を解決し、その API キー専用の Backend を作ります。
type Studio struct {
	credentials credential.Provider
	backends    BackendFactory
	http        poller.HTTPClient
	cache       generator.ImageCacher
	cacheTTL    time.Duration

	builderOpts []generator.BuilderOption
	coreOpts    []generator.CoreOption
	pollOpts    poller.Options
	batchOpts   []batch.Option
}

// Option は Studio の設定を変更します。
type Option func(*Studio)

// WithBackendFactory は Backend の作り方を差し替えます。
func WithBackendFactory(f BackendFactory) Option {
	return func(s *Studio) {
		if f != nil {
			s.backends = f
		}
	}
}

// WithBuilderOptions は RequestBuilder に渡すオプションを追加します。
func WithBuilderOptions(opts ...generator.BuilderOption) Option {
	return func(s *Studio) { s.builderOpts = append(s.builderOpts, opts...) }
}

// WithCoreOptions は GeminiMediaCore に渡すオプションを追加します。
func WithCoreOptions(opts ...generator.CoreOption) Option {
	return func(s *Studio) { s.coreOpts = append(s.coreOpts, opts...) }
}

// WithPollerOptions は動画ポーリングの設定を変更します。
func WithPollerOptions(opts poller.Options) Option {
	return func(s *Studio) { s.pollOpts = opts }
}

// WithBatchOptions はバッチ生成の設定を追加します。
func WithBatchOptions(opts ...batch.Option) Option {
	return func(s *Studio) { s.batchOpts = append(s.batchOpts, opts...) }
}

// WithCache は File API のアップロード結果を保持するキャッシュを指定します。
func WithCache(cache generator.ImageCacher, ttl time.Duration) Option {
	return func(s *Studio) {
		if cache != nil {
			s.cache = cache
		}
		s.cacheTTL = ttl
	}
}

// New は Studio を初期化します。httpClient は生成済み動画のダウンロードに使います。
func New(credentials credential.Provider, httpClient poller.HTTPClient, opts ...Option) (*Studio, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential provider is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}

	s := &Studio{
		credentials: credentials,
		backends:    NewGeminiBackend,
		http:        httpClient,
		cache:       generator.NewMemoryCache(),
		cacheTTL:    generator.DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// flow は1回の生成フローで使う部品一式です。フロー間で共有される可変状態はありません。
type flow struct {
	apiKey    string
	backend   *Backend
	builder   *generator.RequestBuilder
	core      *generator.GeminiMediaCore
	generator *generator.GeminiGenerator
}

// open は認証情報を解決し、その API キー用の部品を組み立てます。
// キーが無い場合はネットワークに触れる前に ErrMissingCredential を返します。
func (s *Studio) open(ctx context.Context) (*flow, error) {
	apiKey, err := s.credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	backend, err := s.backends(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if backend == nil || backend.Content == nil {
		return nil, fmt.Errorf("backend is not available")
	}

	cache := generator.NewNamespacedCache(s.cache, credential.Fingerprint(apiKey))
	core, err := generator.NewGeminiMediaCore(backend.Content, backend.Files, cache, s.cacheTTL, s.coreOpts...)
	if err != nil {
		return nil, err
	}
	builder := generator.NewRequestBuilder(s.builderOpts...)
	gen, err := generator.NewGeminiGenerator(builder, core, backend.Content)
	if err != nil {
		return nil, err
	}

	return &flow{apiKey: apiKey, backend: backend, builder: builder, core: core, generator: gen}, nil
}

// GenerateImage は1枚の画像を生成します。
func (s *Studio) GenerateImage(ctx context.Context, p generator.ImageParams) (*domain.MediaAsset, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	return f.generator.GenerateImage(ctx, p)
}

// GenerateBatch は同じパラメータから count 枚の画像を生成します。
// スロットごとにバリエーション指示が付き、部分的な失敗は各スロットに記録されます。
func (s *Studio) GenerateBatch(ctx context.Context, p generator.ImageParams, count int, onProgress batch.ProgressFunc) (*domain.BatchJob, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	// 入力不備は全スロットの失敗ではなく、呼び出し自体のエラーとして返す
	base, err := f.builder.BuildImageRequest(p)
	if err != nil {
		return nil, err
	}

	coordinator, err := batch.NewCoordinator(f.core, s.batchOpts...)
	if err != nil {
		return nil, err
	}

	factory := func(ctx context.Context, v prompt.Variation) (*domain.GenerationRequest, error) {
		req := *base
		req.Attachments = append([]domain.MediaAttachment(nil), base.Attachments...)
		req.Prompt = v.Apply(base.Prompt)
		return &req, nil
	}
	return coordinator.Run(ctx, factory, count, onProgress)
}

// GenerateVideo は動画ジョブを投入し、完了まで待ってから動画を返します。
func (s *Studio) GenerateVideo(ctx context.Context, p generator.VideoParams) (*domain.MediaAsset, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	req, err := f.builder.BuildVideoRequest(p)
	if err != nil {
		return nil, err
	}

	pl, err := poller.New(f.backend.Videos, f.backend.Operations, s.http, s.pollOpts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	asset, err := pl.SubmitAndAwait(ctx, req, f.apiKey)
	if err != nil {
		return nil, fmt.Errorf("動画生成エラー: %w", err)
	}
	slog.InfoContext(ctx, "動画生成が完了しました", "model", req.Model, "bytes", len(asset.Data), "elapsed", time.Since(start))
	return asset, nil
}

// GenerateSpeech はテキストを読み上げた WAV を返します。
func (s *Studio) GenerateSpeech(ctx context.Context, text, voice string) (*domain.MediaAsset, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	return f.generator.GenerateSpeech(ctx, text, voice)
}
