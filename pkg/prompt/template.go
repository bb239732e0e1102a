package prompt

import (
	"fmt"
	"strings"
)

// 生成指示のテンプレート定数
const (
	// PhotorealismDirective は写真系プロンプトの先頭に付与する品質指示です。
	PhotorealismDirective = `### PHOTOREALISM REQUIREMENTS ###
- OUTPUT: Ultra-high resolution photograph, 8K detail, tack-sharp focus on the subject.
- SKIN: Natural texture with visible pores and fine hair. Accurate, physically based lighting.
- CAMERA: Real lens characteristics, natural depth of field, true-to-life color.
### NEGATIVE PROMPT (STRICTLY FORBIDDEN) ###
blur, motion blur, soft focus, plastic skin, waxy skin, airbrushed, over-smoothed,
CGI look, 3D render, cartoon, illustration, painting, doll-like face, uncanny valley,
distorted hands, extra fingers, watermark, text artifacts, low resolution, jpeg artifacts.`

	// IdentityLockDirective は顔の同一性を維持させるための指示です。
	IdentityLockDirective = `### IDENTITY LOCK (HIGHEST PRIORITY) ###
- The people in the labeled input images are real individuals. Preserve their identity EXACTLY.
- DO NOT change facial structure, face shape, eye shape, nose, jawline, skin tone, age or ethnicity.
- Only pose, clothing, lighting and environment may change as instructed.
- IMAGE MAPPING: each input image is preceded by a text label ("Image 1", "Image 2", ...).
  Resolve every "Image N" reference in the instructions by that label.`

	// ObjectFocusDirective は人物の特徴を無視して対象物に集中させる指示です。
	ObjectFocusDirective = `### SUBJECT FOCUS ###
- Ignore any human features present in the input images.
- Focus entirely on the object or product shown and render it faithfully.`

	// StyleReferenceLabel はスタイル参照画像に付ける末尾ラベルです。
	StyleReferenceLabel = "Style Reference Image"
)

// OrdinalLabel は添付位置(1始まり)に対応するインラインラベルを返します。
func OrdinalLabel(position int) string {
	return fmt.Sprintf("Image %d", position)
}

// ImageMapping はラベルと役割の対応表をテキストとして組み立てます。
type ImageMapping struct {
	Primary bool
	Extras  int
	Style   bool
}

// String は "Image 1 = primary subject" のような対応表を返します。
func (m ImageMapping) String() string {
	if !m.Primary && m.Extras == 0 && !m.Style {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("### IMAGE ROLES ###\n")
	pos := 1
	if m.Primary {
		sb.WriteString(fmt.Sprintf("- %s: PRIMARY SUBJECT. Keep this person's face identical.\n", OrdinalLabel(pos)))
		pos++
	}
	for i := 0; i < m.Extras; i++ {
		sb.WriteString(fmt.Sprintf("- %s: ADDITIONAL SUBJECT. Keep this person's face identical.\n", OrdinalLabel(pos)))
		pos++
	}
	if m.Style {
		sb.WriteString(fmt.Sprintf("- %s: STYLE ONLY. Borrow look, palette and mood; never copy faces from it.\n", StyleReferenceLabel))
	}
	return sb.String()
}

// Compose は空でないセクションを空行区切りで連結します。
func Compose(sections ...string) string {
	nonEmpty := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
