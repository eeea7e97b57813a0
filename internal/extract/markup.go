package extract

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML parses page markup into a node tree
func ParseHTML(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// GetAttribute gets an attribute value from a node
func GetAttribute(n *html.Node, attrKey string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val, true
		}
	}
	return "", false
}

// FlatText concatenates the node's direct text children with '.' removed.
// Grandchildren are not visited.
func FlatText(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(strings.ReplaceAll(c.Data, ".", ""))
		}
	}
	return buf.String()
}

// CorrelationID reads the numeric id embedded in an id attribute such as
// "p26" or "p26s".
func CorrelationID(n *html.Node) (int, bool) {
	raw, ok := GetAttribute(n, "id")
	if !ok {
		return 0, false
	}
	trimmed := strings.TrimRight(strings.TrimLeft(raw, "p"), "s")
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return id, true
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}
