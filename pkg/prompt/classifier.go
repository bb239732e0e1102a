package prompt

import (
	"strings"
)

// Style はプロンプトが写真表現か非写真表現かを表します。
type Style int

const (
	StylePhotographic Style = iota
	StyleStylized
)

// Classifier はプロンプトの画風を判定します。
type Classifier interface {
	Classify(prompt string) Style
}

// ClassifierFunc は関数を Classifier として扱うためのアダプターです。
type ClassifierFunc func(prompt string) Style

func (f ClassifierFunc) Classify(prompt string) Style { return f(prompt) }

// DefaultStylizedKeywords は非写真系の画風とみなすキーワードです。
var DefaultStylizedKeywords = []string{
	"anime", "manga", "cartoon", "comic", "chibi", "illustration", "drawing",
	"sketch", "painting", "oil painting", "watercolor", "pixel art", "vector",
	"3d render", "low poly", "clay", "claymation", "pixar", "disney", "ghibli",
	"lego", "sticker", "caricature", "line art", "cel shading", "vaporwave",
}

// KeywordClassifier はキーワードの部分一致で画風を判定する実装です。
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier はキーワード一覧から KeywordClassifier を作成します。
// keywords が空の場合は DefaultStylizedKeywords を使います。
func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultStylizedKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &KeywordClassifier{keywords: lowered}
}

// Classify はキーワードが1つでも含まれていれば StyleStylized を返します。
func (c *KeywordClassifier) Classify(prompt string) Style {
	p := strings.ToLower(prompt)
	for _, k := range c.keywords {
		if strings.Contains(p, k) {
			return StyleStylized
		}
	}
	return StylePhotographic
}
