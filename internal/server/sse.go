package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/gemini-media-kit/pkg/domain"
)

type slotEvent struct {
	Index     int            `json:"index"`
	State     string         `json:"state"`
	Error     string         `json:"error,omitempty"`
	Asset     *assetResponse `json:"asset,omitempty"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
}

type doneEvent struct {
	ID           string             `json:"id"`
	SuccessCount int                `json:"successCount"`
	Total        int                `json:"total"`
	Primary      *int               `json:"primary,omitempty"`
	Slots        []domain.BatchSlot `json:"slots"`
	Error        *errorBody         `json:"error,omitempty"`
}

// sseWriter は text/event-stream 形式でイベントを書き出します。
// ヘッダーは最初のイベント送信時に書き込まれます。
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) send(event string, v any) error {
	if !s.started {
		s.started = true
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleBatch はバッチ生成の進捗を SSE で配信します。
// スロットが確定するたびに slot イベントを送り、最後に done イベントで集計を送ります。
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Count < 1 || req.Count > s.maxBatch {
		writeError(w, r, domain.NewValidationError("count", fmt.Sprintf("count must be between 1 and %d", s.maxBatch)))
		return
	}
	params, err := s.imageParams(r, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	stream := &sseWriter{w: w, flusher: flusher}

	sent := make([]bool, req.Count)
	completed := 0
	onProgress := func(slots []domain.BatchSlot) {
		for _, slot := range slots {
			if !slot.State.Terminal() || sent[slot.Index] {
				continue
			}
			sent[slot.Index] = true
			completed++
			ev := slotEvent{
				Index:     slot.Index,
				State:     string(slot.State),
				Error:     slot.Error,
				Asset:     newAssetResponse(slot.Asset),
				Completed: completed,
				Total:     len(slots),
			}
			if err := stream.send("slot", ev); err != nil {
				slog.WarnContext(r.Context(), "SSEの送信に失敗しました", "index", slot.Index, "error", err)
			}
		}
	}

	job, err := s.studio.GenerateBatch(r.Context(), params, req.Count, onProgress)
	if job == nil {
		// バッチが始まる前の失敗(認証情報なし・入力不備など)は通常のエラー応答にする
		if err == nil {
			err = fmt.Errorf("batch returned no job")
		}
		writeError(w, r, err)
		return
	}

	done := doneEvent{ID: job.ID, SuccessCount: job.SuccessCount, Total: len(job.Slots), Slots: job.Slots}
	for i := range job.Slots {
		if job.Slots[i].State == domain.SlotSuccess {
			idx := i
			done.Primary = &idx
			break
		}
	}
	if err != nil {
		_, kind := classify(err)
		done.Error = &errorBody{Error: err.Error(), Kind: kind}
	}
	_ = stream.send("done", done)
}
