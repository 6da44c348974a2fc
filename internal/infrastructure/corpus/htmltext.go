package corpus

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are containers whose text is chrome, not content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"header":   true,
	"footer":   true,
}

// extractText flattens an HTML document into whitespace-normalized text.
// Input that does not parse as HTML is returned as-is, which covers plain
// text and markdown served without a content type.
func extractText(raw string) string {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
