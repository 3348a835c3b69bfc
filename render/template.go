package render

import (
	"fmt"
	"strings"

	"github.com/gobuffalo/plush/v4"
)

// RenderTemplate renders src as a plush template with data bound into
// the template context, matching Context.render/renderString's
// delegation to a templating engine (spec.md §1, "out of scope ...
// the HTML templating engine").
func RenderTemplate(src string, data map[string]any) (string, error) {
	ctx := plush.NewContext()
	for k, v := range data {
		ctx.Set(k, v)
	}
	out, err := plush.Render(src, ctx)
	if err != nil {
		return "", fmt.Errorf("render: plush: %w", err)
	}
	return out, nil
}

// RenderBlock renders src and, if block is non-empty, extracts the
// named block delimited by `<!-- block:name -->`/`<!-- /block:name -->`
// comments from the rendered output. A template that defines no such
// block for the requested name returns the full render unchanged.
func RenderBlock(src, block string, data map[string]any) (string, error) {
	full, err := RenderTemplate(src, data)
	if err != nil {
		return "", err
	}
	if block == "" {
		return full, nil
	}
	return extractBlock(full, block), nil
}

func extractBlock(html, name string) string {
	open := "<!-- block:" + name + " -->"
	closeTag := "<!-- /block:" + name + " -->"

	start := strings.Index(html, open)
	if start == -1 {
		return html
	}
	start += len(open)

	end := strings.Index(html[start:], closeTag)
	if end == -1 {
		return strings.TrimSpace(html[start:])
	}
	return strings.TrimSpace(html[start : start+end])
}
