package html

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document is a DOM snapshot of one application state
type Document struct {
	doc *goquery.Document
}

// Node wraps one element of a Document
type Node struct {
	node *html.Node
}

// Parse parses an HTML snapshot into a Document
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses HTML string into a Document
func ParseString(htmlStr string) (*Document, error) {
	return Parse(strings.NewReader(htmlStr))
}

// Query returns all nodes matching selector. The selector is compiled first
// so that syntax the engine does not support is reported as an error
// instead of silently matching nothing.
func (d *Document) Query(selector string) ([]*Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	selection := d.doc.FindMatcher(sel)
	nodes := make([]*Node, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{node: s.Get(0)})
	})
	return nodes, nil
}

// StyleSource is a stylesheet referenced by a document
type StyleSource struct {
	Href string // set for <link rel="stylesheet">
	Text string // set for <style>
}

// Embedded reports whether the source is a <style> block.
func (s StyleSource) Embedded() bool {
	return s.Href == ""
}

// StyleSources returns the stylesheets of the document in inclusion order:
// linked stylesheets first, then <style> blocks, each in page order.
func (d *Document) StyleSources() []StyleSource {
	var sources []StyleSource
	d.doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, ok := s.Attr("href")
		if !ok || !isStylesheetRel(rel) {
			return
		}
		sources = append(sources, StyleSource{Href: strings.TrimSpace(href)})
	})
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.TrimSpace(text) != "" {
			sources = append(sources, StyleSource{Text: text})
		}
	})
	return sources
}

func isStylesheetRel(rel string) bool {
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		if r == "stylesheet" {
			return true
		}
	}
	return false
}

// IsDocument reports whether n is the document root rather than an element.
func (n *Node) IsDocument() bool {
	return n.node.Type == html.DocumentNode
}

// TagName returns the element's tag name
func (n *Node) TagName() string {
	return strings.ToLower(n.node.Data)
}

// Attr returns the value of an attribute and whether it is present
func (n *Node) Attr(name string) (string, bool) {
	for _, attr := range n.node.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

// XPath returns an absolute, index-qualified path such as
// /HTML[1]/BODY[1]/DIV[2] that identifies n within its document.
func (n *Node) XPath() string {
	var steps []string
	for cur := n.node; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		pos := 1
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == cur.Data {
				pos++
			}
		}
		steps = append(steps, strings.ToUpper(cur.Data)+"["+strconv.Itoa(pos)+"]")
	}
	if len(steps) == 0 {
		return "/"
	}
	var b strings.Builder
	for i := len(steps) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(steps[i])
	}
	return b.String()
}
