package prompt

import (
	"fmt"
	"strings"
)

// Variation はバッチ内の1件を識別する決定的なバリエーション指示です。
type Variation struct {
	Index int // 1始まり
	Total int
}

// Directive は (Index, Total) を埋め込んだ指示テキストを返します。
// 同じ入力からは常に同じテキストになるため、再実行時のログ比較に使えます。
func (v Variation) Directive() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### [VARIATION %d OF %d] ###\n", v.Index, v.Total))
	sb.WriteString("- Produce a distinct take on the same scene: vary camera angle, framing and expression slightly.\n")
	sb.WriteString("- Keep every identity and style constraint above unchanged.")
	return sb.String()
}

// Apply はベースプロンプトの末尾にバリエーション指示を追加します。
func (v Variation) Apply(base string) string {
	return Compose(base, v.Directive())
}
