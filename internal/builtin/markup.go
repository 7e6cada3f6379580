package builtin

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// mdRenderer is a goldmark instance with the GFM table extension.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// MarkdownMacro renders markdown to HTML: {=Markdown(**bold**)=}.
type MarkdownMacro struct {
	*macro.Base
}

func newMarkdown(r *macro.Registry) (macro.Handler, error) {
	m := &MarkdownMacro{Base: macro.NewBase(r, macro.NameOf((*MarkdownMacro)(nil)))}
	m.Handle(macro.DefaultMethod, m.run)
	return m, nil
}

func (m *MarkdownMacro) run(args ...string) (string, error) {
	return markdownToHTML(joinArgs(args))
}

func markdownToHTML(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// HTMLMacro converts HTML to markdown: {=Html::markdown(<b>x</b>)=}.
type HTMLMacro struct {
	*macro.Base
}

func newHTML(r *macro.Registry) (macro.Handler, error) {
	m := &HTMLMacro{Base: macro.NewBase(r, "Html")}
	m.Handle(macro.DefaultMethod, m.markdown)
	m.Handle("markdown", m.markdown)
	return m, nil
}

func (m *HTMLMacro) markdown(args ...string) (string, error) {
	return htmlToMarkdown(joinArgs(args))
}

func htmlToMarkdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	out, err := htmltomarkdown.ConvertString(src)
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}
	return strings.TrimSpace(out), nil
}
