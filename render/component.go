package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// WrapComponent implements the component-container rule of spec.md
// §4.7: component renders are wrapped in a container div targeted by
// selector unless the fragment already has a single root element
// carrying its own id, in which case that id is reused as the selector
// so components don't end up double-wrapped across re-renders.
func WrapComponent(fragment, cssID string) (wrapped, selector string) {
	if id, ok := rootElementID(fragment); ok {
		return fragment, "#" + id
	}
	containerID := "c-" + cssID
	return fmt.Sprintf(`<div id="%s">%s</div>`, containerID, fragment), "#" + containerID
}

// rootElementID parses fragment and reports the id attribute of its
// single top-level element, if any.
func rootElementID(fragment string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", false
	}
	body := findBody(doc)
	if body == nil {
		return "", false
	}

	var elementChildren int
	var id string
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		elementChildren++
		if elementChildren > 1 {
			return "", false
		}
		for _, a := range c.Attr {
			if a.Key == "id" {
				id = a.Val
			}
		}
	}
	if elementChildren != 1 || id == "" {
		return "", false
	}
	return id, true
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
