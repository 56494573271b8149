package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md leaves raw HTML out of the output; descriptions and comments are user input.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown renders source to HTML. Empty input renders to "".
func Markdown(source string) string {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return ""
	}
	return buf.String()
}
