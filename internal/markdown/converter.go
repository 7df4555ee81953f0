package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	conversionFallbackPrefixConstant = "<pre>"
	conversionFallbackSuffixConstant = "</pre>"
)

// Converter renders markdown into HTML using a shared goldmark instance.
type Converter struct {
	engine goldmark.Markdown
}

// NewConverter constructs a converter with GitHub-flavored markdown extensions
// and hard line breaks, matching how the source system renders issue bodies.
func NewConverter() *Converter {
	return &Converter{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		),
	}
}

// ToHTML converts the provided markdown to HTML. Conversion failures degrade
// to the raw input wrapped in a preformatted block; an empty body stays empty.
func (converter *Converter) ToHTML(markdownText string) string {
	if len(markdownText) == 0 {
		return ""
	}

	var renderedHTML strings.Builder
	if conversionError := converter.engine.Convert([]byte(markdownText), &renderedHTML); conversionError != nil {
		return conversionFallbackPrefixConstant + markdownText + conversionFallbackSuffixConstant
	}
	return renderedHTML.String()
}
