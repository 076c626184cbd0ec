package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLRenderer converts procedure markdown into an HTML fragment.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer with table and strikethrough support.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// Render returns the HTML for content.
func (r *HTMLRenderer) Render(content string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
