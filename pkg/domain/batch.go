package domain

// SlotState はバッチ内の1スロットのライフサイクルです。
type SlotState string

const (
	SlotPending SlotState = "pending"
	SlotLoading SlotState = "loading"
	SlotSuccess SlotState = "success"
	SlotError   SlotState = "error"
)

// Terminal は success / error のどちらかに到達しているかを返します。
func (s SlotState) Terminal() bool {
	return s == SlotSuccess || s == SlotError
}

// BatchSlot はバッチ生成1件分の結果を保持します。
// 状態は loading から success / error へ進むだけで、逆戻りしません。
type BatchSlot struct {
	Index int         `json:"index"`
	State SlotState   `json:"state"`
	Asset *MediaAsset `json:"-"`
	Error string      `json:"error,omitempty"`
}

// Resolve はスロットを終端状態へ進めます。既に終端なら何もせず false を返します。
func (s *BatchSlot) Resolve(asset *MediaAsset, err error) bool {
	if s.State.Terminal() {
		return false
	}
	if err != nil {
		s.State = SlotError
		s.Error = err.Error()
		s.Asset = nil
		return true
	}
	s.State = SlotSuccess
	s.Asset = asset
	s.Error = ""
	return true
}

// BatchJob は N 件のスロットと、そこから導出される集計値です。
type BatchJob struct {
	ID           string
	Slots        []BatchSlot
	SuccessCount int
	// Primary は最小インデックスの成功スロットのアセットです。成功が無ければ nil。
	Primary *MediaAsset
}

// Summarize は Slots から SuccessCount と Primary を計算し直します。
func (j *BatchJob) Summarize() {
	j.SuccessCount = 0
	j.Primary = nil
	for i := range j.Slots {
		if j.Slots[i].State != SlotSuccess {
			continue
		}
		j.SuccessCount++
		if j.Primary == nil {
			j.Primary = j.Slots[i].Asset
		}
	}
}

// OperationStatus は長時間ジョブの状態です。
type OperationStatus int

const (
	OperationSubmitted OperationStatus = iota
	OperationRunning
	OperationDone
	OperationFailed
)

func (s OperationStatus) String() string {
	switch s {
	case OperationSubmitted:
		return "submitted"
	case OperationRunning:
		return "running"
	case OperationDone:
		return "done"
	case OperationFailed:
		return "failed"
	}
	return "unknown"
}

// AsyncOperation はバックエンドの長時間ジョブへの不透明なハンドルです。
type AsyncOperation struct {
	Name   string
	Status OperationStatus
}

// Advance は状態を next に進めます。後退や終端からの遷移は無視され false を返します。
func (o *AsyncOperation) Advance(next OperationStatus) bool {
	if o.Status == OperationDone || o.Status == OperationFailed {
		return false
	}
	if next <= o.Status {
		return false
	}
	o.Status = next
	return true
}
