package batch

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/prompt"
	"golang.org/x/sync/errgroup"
)

// Executor は1件分のリクエストを実行します。generator.ImageExecutor がこれを満たします。
type Executor interface {
	ExecuteRequest(ctx context.Context, req *domain.GenerationRequest) (*domain.MediaAsset, error)
}

// RequestFactory はバリエーションごとのリクエストを組み立てます。
// 返したエラーはそのスロットの失敗として扱われます。
type RequestFactory func(ctx context.Context, v prompt.Variation) (*domain.GenerationRequest, error)

// ProgressFunc はスロットが更新されるたびに、その時点の全スロットのコピーを受け取ります。
type ProgressFunc func(slots []domain.BatchSlot)

// SlotEvent は1スロットの完了を表します。Completed は完了済みの件数で、単調に増加します。
type SlotEvent struct {
	Index     int
	Asset     *domain.MediaAsset
	Err       error
	Completed int
}

// Coordinator は同じ設定から N 件の生成を行い、部分的な失敗を許容します。
type Coordinator struct {
	executor    Executor
	concurrency int
}

// Option は Coordinator の設定を変更します。
type Option func(*Coordinator)

// WithConcurrency は同時に実行するスロット数を指定します。1 以下なら逐次実行です。
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 1 {
			c.concurrency = n
		}
	}
}

// NewCoordinator は Coordinator を初期化します。
func NewCoordinator(executor Executor, opts ...Option) (*Coordinator, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	c := &Coordinator{executor: executor, concurrency: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Events は count 件の生成を実行し、完了したスロットから順にイベントを返します。
// 逐次実行ではインデックス順、並列実行では完了順になります。
// 途中で range を抜けると、未着手のスロットは実行されません。
func (c *Coordinator) Events(ctx context.Context, factory RequestFactory, count int) iter.Seq[SlotEvent] {
	if c.concurrency > 1 {
		return c.parallelEvents(ctx, factory, count)
	}
	return func(yield func(SlotEvent) bool) {
		for i := 0; i < count; i++ {
			asset, err := c.runSlot(ctx, factory, i, count)
			if !yield(SlotEvent{Index: i, Asset: asset, Err: err, Completed: i + 1}) {
				return
			}
		}
	}
}

func (c *Coordinator) parallelEvents(ctx context.Context, factory RequestFactory, count int) iter.Seq[SlotEvent] {
	return func(yield func(SlotEvent) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := make(chan SlotEvent, count)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		go func() {
			for i := 0; i < count; i++ {
				g.Go(func() error {
					asset, err := c.runSlot(gctx, factory, i, count)
					results <- SlotEvent{Index: i, Asset: asset, Err: err}
					return nil
				})
			}
			_ = g.Wait()
			close(results)
		}()

		completed := 0
		for ev := range results {
			completed++
			ev.Completed = completed
			if !yield(ev) {
				cancel()
				// 残りのゴルーチンが終わるまで読み捨てる
				for range results {
				}
				return
			}
		}
	}
}

// runSlot はスロット i のリクエストを組み立てて実行します。
func (c *Coordinator) runSlot(ctx context.Context, factory RequestFactory, i, count int) (*domain.MediaAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := prompt.Variation{Index: i + 1, Total: count}
	// エラーはスロットにそのまま記録する
	req, err := factory(ctx, v)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.NewValidationError("request", "factory returned nil request")
	}
	return c.executor.ExecuteRequest(ctx, req)
}

// Run は count 件のバッチを実行し、すべてのスロットを持つ BatchJob を返します。
// 成功が 1 件も無い場合も BatchJob は返され、エラーとして AllItemsFailedError を伴います。
func (c *Coordinator) Run(ctx context.Context, factory RequestFactory, count int, onProgress ProgressFunc) (*domain.BatchJob, error) {
	if count < 1 {
		return nil, domain.NewValidationError("count", "batch size must be at least 1")
	}
	if factory == nil {
		return nil, domain.NewValidationError("factory", "request factory is required")
	}

	job := &domain.BatchJob{
		ID:    uuid.NewString(),
		Slots: make([]domain.BatchSlot, count),
	}
	for i := range job.Slots {
		job.Slots[i] = domain.BatchSlot{Index: i, State: domain.SlotLoading}
	}

	slog.InfoContext(ctx, "バッチ生成を開始します", "job", job.ID, "count", count, "concurrency", c.concurrency)

	for ev := range c.Events(ctx, factory, count) {
		job.Slots[ev.Index].Resolve(ev.Asset, ev.Err)
		if ev.Err != nil {
			slog.WarnContext(ctx, "バッチの1件が失敗しました", "job", job.ID, "index", ev.Index, "error", ev.Err)
		}
		if onProgress != nil {
			onProgress(snapshot(job.Slots))
		}
	}

	job.Summarize()
	slog.InfoContext(ctx, "バッチ生成が完了しました", "job", job.ID, "success", job.SuccessCount, "count", count)

	if job.SuccessCount == 0 {
		failed := &domain.AllItemsFailedError{Count: count}
		for _, s := range job.Slots {
			failed.Errors = append(failed.Errors, s.Error)
		}
		return job, failed
	}
	return job, nil
}

func snapshot(slots []domain.BatchSlot) []domain.BatchSlot {
	out := make([]domain.BatchSlot, len(slots))
	copy(out, slots)
	return out
}
