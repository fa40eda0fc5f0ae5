// Package surface provides the content surface the annotation engine runs
// against: an in-memory document tree parsed from serialized markup, with the
// selection, tree-walking and node-surgery operations the engine needs. It is
// the only package that touches the tree directly, so the rest of the engine
// can be exercised without a live rendering host.
package surface

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Attribute names carried by marker elements inserted into the tree.
const (
	AttrAnnotationID = "data-annotation-id"
	AttrComment      = "data-comment"
	AttrPendingID    = "data-pending-id"
)

// HighlightTag is the element used to wrap highlighted ranges.
const HighlightTag = "mark"

// Surface wraps a parsed content container plus the active user selection.
type Surface struct {
	root   *html.Node
	active *Range
}

// Parse builds a surface from serialized markup. The content container is the
// document body the parser produces.
func Parse(markup string) (*Surface, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, fmt.Errorf("parsed content has no body")
	}
	return &Surface{root: body}, nil
}

// Root returns the content container node.
func (s *Surface) Root() *html.Node {
	return s.root
}

// Text returns the linearized text of the container: the concatenation of all
// text-bearing nodes in document order, element boundaries skipped.
func (s *Surface) Text() string {
	var b strings.Builder
	for _, n := range s.TextNodes() {
		b.WriteString(n.Data)
	}
	return b.String()
}

// TextNodes returns the container's text nodes in document order. Script and
// style subtrees carry no user-visible text and are skipped.
func (s *Surface) TextNodes() []*html.Node {
	var nodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
	return nodes
}

// Render serializes the container's current children back to markup.
func (s *Surface) Render() (string, error) {
	var buf bytes.Buffer
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render content: %w", err)
		}
	}
	return buf.String(), nil
}

// ActiveSelection returns the current user selection, or nil when none.
func (s *Surface) ActiveSelection() *Range {
	return s.active
}

// SetActiveSelection records a user selection (a rendering host would call
// this from its pointer-up handler).
func (s *Surface) SetActiveSelection(r *Range) {
	s.active = r
}

// ClearActiveSelection drops the current selection, mirroring the native
// selection collapse after an annotation is committed.
func (s *Surface) ClearActiveSelection() {
	s.active = nil
}

// QueryByAnnotationID finds the first highlight element carrying the given
// annotation id, or nil.
func (s *Surface) QueryByAnnotationID(id string) *html.Node {
	return findByAttr(s.root, AttrAnnotationID, id)
}

// QueryAllMarked returns every element carrying the given marker attribute.
func (s *Surface) QueryAllMarked(attrKey string) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAttr(n, attrKey) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
	return out
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByAttr(n *html.Node, key, val string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, key, val); found != nil {
			return found
		}
	}
	return nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute on an element, if present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
