package generator

import (
	"time"

	"github.com/shouni/gemini-media-kit/pkg/domain"
)

const (
	// FastImageModel は standard ティア用のモデルです。
	FastImageModel = "gemini-2.5-flash-image"
	// HighFidelityImageModel は high / ultra ティア用のモデルです。
	HighFidelityImageModel = "gemini-3-pro-image-preview"
	VideoModel             = "veo-3.1-fast-generate-preview"
	SpeechModel            = "gemini-2.5-flash-preview-tts"
	DefaultVoice           = "Kore"

	DefaultImageAspectRatio = "1:1"
	DefaultVideoAspectRatio = "16:9"

	// InlineDataLimit を超える添付は File API 経由で送ります。
	// リクエスト全体の上限 20MB に対し、プロンプト分の余裕を残しています。
	InlineDataLimit = 15 << 20
	DefaultCacheTTL = 47 * time.Hour // File API のファイル保持期間(48h)より短くする

	cacheKeyFileAPIURI  = "fileapi_uri:"
	cacheKeyFileAPIName = "fileapi_name:"
)

// ImageParams はフォームの選択内容から作られる画像生成パラメータです。
type ImageParams struct {
	Prompt           string
	Primary          *domain.MediaAttachment
	Extras           []domain.MediaAttachment
	Style            *domain.MediaAttachment
	AspectRatio      string
	Tier             domain.ResolutionTier
	PreserveIdentity bool
}

// VideoParams は動画生成パラメータです。Prompt と Source の少なくとも一方が必要です。
type VideoParams struct {
	Prompt      string
	Source      *domain.MediaAttachment
	AspectRatio string
}
