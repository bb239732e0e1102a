package domain

import (
	"encoding/base64"
	"fmt"
)

// AttachmentRole は添付画像がリクエスト内で果たす役割です。
type AttachmentRole string

const (
	RolePrimarySubject AttachmentRole = "primary-subject"
	RoleExtraSubject   AttachmentRole = "extra-subject"
	RoleStyleReference AttachmentRole = "style-reference"
)

// RequestKind はリクエストがどの生成系に送られるかを表します。
type RequestKind string

const (
	KindImage RequestKind = "image"
	KindVideo RequestKind = "video"
)

// ResolutionTier は品質とコストを決める粗い選択肢です。
// 値はそのまま Gemini の imageSize として送信できる文字列にしています。
type ResolutionTier string

const (
	TierStandard ResolutionTier = "1K"
	TierHigh     ResolutionTier = "2K"
	TierUltra    ResolutionTier = "4K"
)

// Valid は既知のティアかどうかを返します。
func (t ResolutionTier) Valid() bool {
	switch t {
	case TierStandard, TierHigh, TierUltra:
		return true
	}
	return false
}

// MediaAttachment はリクエストに同梱されるバイナリ1件です。
type MediaAttachment struct {
	Data     []byte
	MIMEType string
	Role     AttachmentRole
	// Label は "Image 1" のようなインラインの序数ラベル。ラベル不要の場合は空。
	Label string
}

// GenerationRequest は1回の生成呼び出しに必要な情報をすべて保持します。
// 呼び出しごとに作られ、レスポンス受信後は破棄されます。
type GenerationRequest struct {
	Kind RequestKind
	// Model は ResolutionTier から決定されたバックエンドのモデルIDです。
	Model string
	// Prompt は最終的に送信される指示テキストで、常に最後のパーツになります。
	Prompt           string
	Attachments      []MediaAttachment // 順序: primary, extra..., style
	Tier             ResolutionTier
	AspectRatio      string
	ImageSize        string // standard では空
	PreserveIdentity bool
}

// PrimaryAttachment は primary-subject の添付を返します。無い場合は nil です。
func (r *GenerationRequest) PrimaryAttachment() *MediaAttachment {
	for i := range r.Attachments {
		if r.Attachments[i].Role == RolePrimarySubject {
			return &r.Attachments[i]
		}
	}
	return nil
}

// MediaAsset は生成に成功したメディアです。
type MediaAsset struct {
	Data     []byte
	MIMEType string
}

// DataURI はブラウザでそのまま表示できる data URI を返します。
func (a *MediaAsset) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}
