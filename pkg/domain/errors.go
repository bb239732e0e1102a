package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingCredential は API キーがどこにも設定されていないことを示します。
	ErrMissingCredential = errors.New("api credential is not configured")
	ErrValidation        = errors.New("invalid request")
	// ErrNoMediaReturned はバックエンドが応答したもののメディアを返さなかったことを示します。
	ErrNoMediaReturned = errors.New("no media returned")
	ErrTransport       = errors.New("transport failure")
	// ErrMissingAsset は完了したオペレーションに結果の参照が無いことを示します。
	ErrMissingAsset    = errors.New("operation finished without an asset")
	ErrAllItemsFailed  = errors.New("all batch items failed")
	ErrOperationFailed = errors.New("operation failed")
)

// ValidationError は呼び出し側の入力不備です。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError は ValidationError を作成します。
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NoMediaReturnedError はテキストのみ（安全フィルターによる拒否など）の応答を表します。
type NoMediaReturnedError struct {
	FinishReason string
	Text         string
}

func (e *NoMediaReturnedError) Error() string {
	var sb strings.Builder
	sb.WriteString("no media returned")
	if e.FinishReason != "" {
		sb.WriteString(" (finish reason: " + e.FinishReason + ")")
	}
	if e.Text != "" {
		sb.WriteString(": " + e.Text)
	}
	return sb.String()
}

func (e *NoMediaReturnedError) Is(target error) bool { return target == ErrNoMediaReturned }

// TransportError はネットワークや HTTP レベルの失敗を包みます。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// MissingAssetError はオペレーションが done なのにダウンロード参照が無い場合のエラーです。
type MissingAssetError struct {
	Operation string
	Reason    string
}

func (e *MissingAssetError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("operation %q finished without an asset", e.Operation)
	}
	return fmt.Sprintf("operation %q finished without an asset: %s", e.Operation, e.Reason)
}

func (e *MissingAssetError) Is(target error) bool { return target == ErrMissingAsset }

// OperationFailedError はバックエンドがジョブの失敗を報告した場合のエラーです。
type OperationFailedError struct {
	Operation string
	Detail    map[string]any
}

func (e *OperationFailedError) Error() string {
	if msg, ok := e.Detail["message"].(string); ok && msg != "" {
		return fmt.Sprintf("operation %q failed: %s", e.Operation, msg)
	}
	return fmt.Sprintf("operation %q failed: %v", e.Operation, e.Detail)
}

func (e *OperationFailedError) Is(target error) bool { return target == ErrOperationFailed }

// AllItemsFailedError はバッチの全件が失敗したことを表します。
// 個々の失敗内容は BatchJob のスロットにも残っています。
type AllItemsFailedError struct {
	Count  int
	Errors []string
}

func (e *AllItemsFailedError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("all %d batch items failed", e.Count)
	}
	return fmt.Sprintf("all %d batch items failed (first: %s)", e.Count, e.Errors[0])
}

func (e *AllItemsFailedError) Is(target error) bool { return target == ErrAllItemsFailed }
