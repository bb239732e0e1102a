package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/gemini-media-kit/internal/config"
	"github.com/shouni/gemini-media-kit/internal/server"
	"github.com/shouni/gemini-media-kit/pkg/asset"
	"github.com/shouni/gemini-media-kit/pkg/batch"
	"github.com/shouni/gemini-media-kit/pkg/credential"
	"github.com/shouni/gemini-media-kit/pkg/generator"
	"github.com/shouni/gemini-media-kit/pkg/imgutil"
	"github.com/shouni/gemini-media-kit/pkg/poller"
	"github.com/shouni/gemini-media-kit/pkg/studio"
)

func main() {
	if err := run(); err != nil {
		slog.Error("サーバーを起動できませんでした", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ダウンロードは netutil.FetchOnce が Do を直接呼ぶため再試行されない
	httpClient := httpkit.New(cfg.HTTPTimeout)

	creds, err := credentials(cfg)
	if err != nil {
		return err
	}

	reader, closeReader, err := inputReader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeReader()

	loader := asset.NewLoader(httpClient, reader, asset.WithNormalize(imgutil.Options{
		MaxBytes: cfg.AttachmentMaxBytes,
		Quality:  imgutil.DefaultQuality,
	}))

	st, err := studio.New(creds, httpClient,
		studio.WithBuilderOptions(
			generator.WithImageModels(cfg.FastImageModel, cfg.HighFidelityImageModel),
			generator.WithVideoModel(cfg.VideoModel),
		),
		studio.WithPollerOptions(poller.Options{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
			Backoff:     cfg.PollBackoff,
			MaxInterval: cfg.PollMaxInterval,
		}),
		studio.WithBatchOptions(batch.WithConcurrency(cfg.BatchConcurrency)),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(st, loader,
			server.WithMaxBatch(cfg.BatchMaxCount),
			server.WithRequestTimeout(cfg.RequestTimeout),
			server.WithVideoTimeout(cfg.VideoRequestTimeout),
		).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTPサーバーを起動します", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
	}
	slog.Info("サーバーを停止しました")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// credentials は保存済みキー、環境変数の順に API キーを探すチェーンを返します。
func credentials(cfg config.Config) (credential.Chain, error) {
	store := credential.NewFileStore(cfg.CredentialFile)
	if cfg.CredentialFile == "" {
		var err error
		if store, err = credential.DefaultFileStore(); err != nil {
			slog.Warn("保存済みAPIキーの場所を特定できません。環境変数のみを使います", "error", err)
			return credential.Chain{credential.NewEnv()}, nil
		}
	}
	return credential.Chain{store, credential.NewEnv()}, nil
}

// inputReader は設定に応じて添付ファイルの読み込み元を用意します。
// ローカルファイルも GCS も無効なら nil を返し、URL と data URL だけを受け付けます。
func inputReader(ctx context.Context, cfg config.Config) (remoteio.InputReader, func(), error) {
	noop := func() {}
	if !cfg.AllowLocalFiles && !cfg.EnableGCS {
		return nil, noop, nil
	}
	if !cfg.EnableGCS {
		return remoteio.NewUniversalInputReader(nil, nil), noop, nil
	}

	gcs, err := storage.NewClient(ctx)
	if err != nil {
		return nil, noop, fmt.Errorf("GCSクライアントの初期化に失敗しました: %w", err)
	}
	closeFn := func() { _ = gcs.Close() }

	var reader remoteio.InputReader = remoteio.NewUniversalInputReader(gcs, nil)
	if !cfg.AllowLocalFiles {
		reader = gcsOnly{reader}
	}
	return reader, closeFn, nil
}

// gcsOnly は gs:// 以外のパスを拒否します。
type gcsOnly struct {
	remoteio.InputReader
}

func (g gcsOnly) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !remoteio.IsGCSURI(path) {
		return nil, fmt.Errorf("ローカルファイルの読み込みは無効です: %s", path)
	}
	return g.InputReader.Open(ctx, path)
}
