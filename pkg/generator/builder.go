package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/prompt"
)

// RequestBuilder はフォームのパラメータから GenerationRequest を組み立てます。
type RequestBuilder struct {
	classifier        prompt.Classifier
	fastModel         string
	highFidelityModel string
	videoModel        string
}

// BuilderOption は RequestBuilder の設定を変更します。
type BuilderOption func(*RequestBuilder)

// WithClassifier はプロンプトの画風判定を差し替えます。
func WithClassifier(c prompt.Classifier) BuilderOption {
	return func(b *RequestBuilder) {
		if c != nil {
			b.classifier = c
		}
	}
}

// WithImageModels はティアごとのモデルIDを上書きします。空文字は既定値のまま。
func WithImageModels(fast, highFidelity string) BuilderOption {
	return func(b *RequestBuilder) {
		if fast != "" {
			b.fastModel = fast
		}
		if highFidelity != "" {
			b.highFidelityModel = highFidelity
		}
	}
}

// WithVideoModel は動画モデルIDを上書きします。
func WithVideoModel(model string) BuilderOption {
	return func(b *RequestBuilder) {
		if model != "" {
			b.videoModel = model
		}
	}
}

// NewRequestBuilder は既定のキーワード判定とモデルIDで RequestBuilder を作成します。
func NewRequestBuilder(opts ...BuilderOption) *RequestBuilder {
	b := &RequestBuilder{
		classifier:        prompt.NewKeywordClassifier(),
		fastModel:         FastImageModel,
		highFidelityModel: HighFidelityImageModel,
		videoModel:        VideoModel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SelectModel はティアからモデルIDと imageSize を決定します。
// standard は高速モデルでサイズ指定なし、high / ultra は高精細モデルでティアをそのままサイズに使います。
func (b *RequestBuilder) SelectModel(tier domain.ResolutionTier) (string, string, error) {
	switch tier {
	case domain.TierStandard, "":
		return b.fastModel, "", nil
	case domain.TierHigh, domain.TierUltra:
		return b.highFidelityModel, string(tier), nil
	}
	return "", "", domain.NewValidationError("tier", fmt.Sprintf("unknown resolution tier %q", tier))
}

// BuildImageRequest は画像生成リクエストを組み立てます。
// 添付は [primary, extra..., style] の順に並び、指示テキストは常に最後のパーツになります。
func (b *RequestBuilder) BuildImageRequest(p ImageParams) (*domain.GenerationRequest, error) {
	model, imageSize, err := b.SelectModel(p.Tier)
	if err != nil {
		return nil, err
	}
	tier := p.Tier
	if tier == "" {
		tier = domain.TierStandard
	}

	attachments, mapping, err := orderAttachments(p)
	if err != nil {
		return nil, err
	}

	userPrompt := strings.TrimSpace(p.Prompt)
	if p.PreserveIdentity && len(attachments) == 0 {
		return nil, domain.NewValidationError("attachments", "identity preservation requires at least one reference image")
	}
	if userPrompt == "" && len(attachments) == 0 {
		return nil, domain.NewValidationError("prompt", "prompt or reference image is required")
	}

	sections := make([]string, 0, 4)
	if p.PreserveIdentity {
		sections = append(sections, prompt.IdentityLockDirective, mapping.String())
		for i := range attachments {
			attachments[i].Label = labelFor(attachments[i].Role, i+1)
		}
	} else if len(attachments) > 0 {
		sections = append(sections, prompt.ObjectFocusDirective)
	}
	if b.classifier.Classify(userPrompt) == prompt.StylePhotographic {
		sections = append(sections, prompt.PhotorealismDirective)
	}
	sections = append(sections, userPrompt)

	aspect := p.AspectRatio
	if aspect == "" {
		aspect = DefaultImageAspectRatio
	}

	return &domain.GenerationRequest{
		Kind:             domain.KindImage,
		Model:            model,
		Prompt:           prompt.Compose(sections...),
		Attachments:      attachments,
		Tier:             tier,
		AspectRatio:      aspect,
		ImageSize:        imageSize,
		PreserveIdentity: p.PreserveIdentity,
	}, nil
}

// BuildVideoRequest は動画生成リクエストを組み立てます。
func (b *RequestBuilder) BuildVideoRequest(p VideoParams) (*domain.GenerationRequest, error) {
	text := strings.TrimSpace(p.Prompt)
	hasSource := p.Source != nil && len(p.Source.Data) > 0
	if text == "" && !hasSource {
		return nil, domain.NewValidationError("prompt", "prompt or source image is required")
	}

	var attachments []domain.MediaAttachment
	if hasSource {
		src := *p.Source
		src.Role = domain.RolePrimarySubject
		src.Label = ""
		attachments = []domain.MediaAttachment{src}
	}

	aspect := p.AspectRatio
	if aspect == "" {
		aspect = DefaultVideoAspectRatio
	}

	return &domain.GenerationRequest{
		Kind:        domain.KindVideo,
		Model:       b.videoModel,
		Prompt:      text,
		Attachments: attachments,
		AspectRatio: aspect,
	}, nil
}

// orderAttachments は添付を規定の順序に並べ、役割を確定させます。
func orderAttachments(p ImageParams) ([]domain.MediaAttachment, prompt.ImageMapping, error) {
	var mapping prompt.ImageMapping
	out := make([]domain.MediaAttachment, 0, len(p.Extras)+2)

	add := func(field string, a domain.MediaAttachment, role domain.AttachmentRole) error {
		if len(a.Data) == 0 {
			return domain.NewValidationError(field, "attachment has no data")
		}
		a.Role = role
		a.Label = ""
		out = append(out, a)
		return nil
	}

	if p.Primary != nil {
		if err := add("primary", *p.Primary, domain.RolePrimarySubject); err != nil {
			return nil, mapping, err
		}
		mapping.Primary = true
	}
	for i, extra := range p.Extras {
		if err := add(fmt.Sprintf("extras[%d]", i), extra, domain.RoleExtraSubject); err != nil {
			return nil, mapping, err
		}
		mapping.Extras++
	}
	if p.Style != nil {
		if err := add("style", *p.Style, domain.RoleStyleReference); err != nil {
			return nil, mapping, err
		}
		mapping.Style = true
	}
	return out, mapping, nil
}

func labelFor(role domain.AttachmentRole, position int) string {
	if role == domain.RoleStyleReference {
		return prompt.StyleReferenceLabel
	}
	return prompt.OrdinalLabel(position)
}
