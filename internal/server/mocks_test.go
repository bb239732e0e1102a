package server

import (
	"context"
	"errors"

	"github.com/shouni/gemini-media-kit/pkg/batch"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

type fakeStudio struct {
	imageParams generator.ImageParams
	videoParams generator.VideoParams
	speechText  string
	batchCount  int
	// hasDeadline は最後の呼び出しの ctx に期限があったかどうか
	hasDeadline bool

	asset *domain.MediaAsset
	err   error
	// failSlots に含まれるインデックスはバッチで失敗させるのだ
	failSlots map[int]bool
}

func (f *fakeStudio) GenerateImage(ctx context.Context, p generator.ImageParams) (*domain.MediaAsset, error) {
	f.imageParams = p
	_, f.hasDeadline = ctx.Deadline()
	return f.asset, f.err
}

func (f *fakeStudio) GenerateBatch(ctx context.Context, p generator.ImageParams, count int, onProgress batch.ProgressFunc) (*domain.BatchJob, error) {
	f.imageParams = p
	f.batchCount = count
	if f.err != nil {
		return nil, f.err
	}

	job := &domain.BatchJob{ID: "job-1", Slots: make([]domain.BatchSlot, count)}
	for i := range job.Slots {
		job.Slots[i] = domain.BatchSlot{Index: i, State: domain.SlotLoading}
	}
	for i := range job.Slots {
		if f.failSlots[i] {
			job.Slots[i].Resolve(nil, errors.New("refused"))
		} else {
			job.Slots[i].Resolve(f.asset, nil)
		}
		snap := make([]domain.BatchSlot, count)
		copy(snap, job.Slots)
		onProgress(snap)
	}
	job.Summarize()
	if job.SuccessCount == 0 {
		return job, &domain.AllItemsFailedError{Count: count}
	}
	return job, nil
}

func (f *fakeStudio) GenerateVideo(ctx context.Context, p generator.VideoParams) (*domain.MediaAsset, error) {
	f.videoParams = p
	_, f.hasDeadline = ctx.Deadline()
	return f.asset, f.err
}

func (f *fakeStudio) GenerateSpeech(ctx context.Context, text, voice string) (*domain.MediaAsset, error) {
	f.speechText = text
	return f.asset, f.err
}

type fakeLoader struct {
	err error
}

func (f *fakeLoader) Load(ctx context.Context, source string, role domain.AttachmentRole) (*domain.MediaAttachment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.MediaAttachment{Data: []byte(source), MIMEType: "image/png", Role: role}, nil
}
