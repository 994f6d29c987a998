package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// minContentLength is the shortest text a content candidate may carry
const minContentLength = 80

// mainContent returns the node holding the main article body: the semantic landmarks
// (<article>, then <main>) when present, otherwise the element with the best text
// density. Nil when the document has no body text at all.
func mainContent(doc *html.Node) *html.Node {
	for _, tag := range []atom.Atom{atom.Article, atom.Main} {
		for _, n := range findAll(doc, tag) {
			if len(visibleText(n)) >= minContentLength {
				return n
			}
		}
	}

	body := findFirst(doc, atom.Body)
	if body == nil {
		body = doc
	}

	if best := densestNode(body); best != nil {
		return best
	}
	if strings.TrimSpace(visibleText(body)) == "" {
		return nil
	}
	return body
}

// densestNode scores block elements by text to markup ratio, scaled by text length
// and penalized by link density
func densestNode(root *html.Node) *html.Node {
	var (
		best      *html.Node
		bestScore float64
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode || isBoilerplate(n) {
			return
		}
		if isBlockTag(n.DataAtom) {
			text := visibleText(n)
			if len(text) >= minContentLength {
				linkDensity := float64(len(linkText(n))) / float64(len(text))
				if linkDensity <= 0.5 {
					density := float64(len(text)) / float64(max(len(render(n)), 1))
					score := density * lengthScale(len(text)) * (1 - linkDensity)
					if score > bestScore {
						best, bestScore = n, score
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return best
}

func lengthScale(n int) float64 {
	scale := 1.0
	for n > 100 {
		scale++
		n /= 2
	}
	return scale
}

func isBlockTag(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Td, atom.Body:
		return true
	}
	return false
}

func isBoilerplate(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Form,
		atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Svg:
		return true
	}

	marker := strings.ToLower(attr(n, "class") + " " + attr(n, "id") + " " + attr(n, "role"))
	for _, word := range []string{"navigation", "sidebar", "footer", "comment", "cookie", "advert", "banner", "share", "related"} {
		if strings.Contains(marker, word) {
			return true
		}
	}
	return false
}

// visibleText collects text outside boilerplate, one space between segments
func visibleText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isBoilerplate(n) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func linkText(n *html.Node) string {
	var sb strings.Builder
	for _, a := range findAll(n, atom.A) {
		sb.WriteString(visibleText(a))
	}
	return sb.String()
}

// documentTitle prefers og:title and falls back to <title>
func documentTitle(doc *html.Node) string {
	for _, meta := range findAll(doc, atom.Meta) {
		if attr(meta, "property") == "og:title" {
			if t := strings.TrimSpace(attr(meta, "content")); t != "" {
				return t
			}
		}
	}
	if title := findFirst(doc, atom.Title); title != nil {
		return strings.TrimSpace(visibleText(title))
	}
	return ""
}

func findAll(root *html.Node, tag atom.Atom) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return nodes
}

func findFirst(root *html.Node, tag atom.Atom) *html.Node {
	if nodes := findAll(root, tag); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
