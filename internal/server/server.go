package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shouni/gemini-media-kit/pkg/batch"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

// Studio はサーバーが呼び出す生成フローです。studio.Studio がこれを満たします。
type Studio interface {
	GenerateImage(ctx context.Context, p generator.ImageParams) (*domain.MediaAsset, error)
	GenerateBatch(ctx context.Context, p generator.ImageParams, count int, onProgress batch.ProgressFunc) (*domain.BatchJob, error)
	GenerateVideo(ctx context.Context, p generator.VideoParams) (*domain.MediaAsset, error)
	GenerateSpeech(ctx context.Context, text, voice string) (*domain.MediaAsset, error)
}

// AttachmentLoader は添付の参照文字列をバイト列に解決します。asset.Loader がこれを満たします。
type AttachmentLoader interface {
	Load(ctx context.Context, source string, role domain.AttachmentRole) (*domain.MediaAttachment, error)
}

// Server は生成フローを HTTP で公開します。
type Server struct {
	studio         Studio
	loader         AttachmentLoader
	maxBatch       int
	requestTimeout time.Duration
	videoTimeout   time.Duration
	maxBodyBytes   int64
}

// Option は Server の設定を変更します。
type Option func(*Server)

// WithMaxBatch は1回のバッチで生成できる最大枚数を指定します。
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithRequestTimeout は1リクエストあたりの処理時間の上限を指定します。0 なら無制限です。
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// WithVideoTimeout は動画生成リクエストの処理時間の上限を指定します。
// 0 なら無制限で、打ち切りはポーリング設定に任せます。
func WithVideoTimeout(d time.Duration) Option {
	return func(s *Server) { s.videoTimeout = d }
}

// New は Server を作成します。
func New(studio Studio, loader AttachmentLoader, opts ...Option) *Server {
	s := &Server{
		studio:       studio,
		loader:       loader,
		maxBatch:     8,
		maxBodyBytes: 64 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes は chi のルーターを組み立てます。
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.limits(s.requestTimeout))
			r.Post("/images", s.handleImage)
			r.Post("/images/batch", s.handleBatch)
			r.Post("/speech", s.handleSpeech)
		})
		r.With(s.limits(s.videoTimeout)).Post("/videos", s.handleVideo)
	})
	return r
}

// limits はリクエストボディの上限と処理時間の上限を設定します。timeout が 0 なら時間の上限はありません。
func (s *Server) limits(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
			if timeout > 0 {
				ctx, cancel := context.WithTimeout(r.Context(), timeout)
				defer cancel()
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush は SSE のために元の ResponseWriter の Flush を呼びます。
func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "HTTPリクエストを処理しました",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
