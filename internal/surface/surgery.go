package surface

import (
	"fmt"

	"golang.org/x/net/html"
)

// NewMarker builds a highlight marker element with the given attributes.
func NewMarker(attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     HighlightTag,
		DataAtom: 0,
		Attr:     attrs,
	}
}

// WrapRange wraps the text covered by the range in the marker element.
// A range inside a single text node is split in place. A range whose
// boundaries are sibling text nodes is extracted and reinserted inside the
// marker. Anything else (boundaries under different parents) fails, and the
// caller degrades to an unhighlighted annotation.
//
// Wrapping only moves and splits text nodes; it never adds or removes
// characters from the linearized text.
func (s *Surface) WrapRange(r *Range, marker *html.Node) (*html.Node, error) {
	startNode, endNode := r.Start.Node, r.End.Node
	if startNode == nil || endNode == nil || startNode.Type != html.TextNode || endNode.Type != html.TextNode {
		return nil, fmt.Errorf("range boundaries are not text nodes")
	}
	start := clamp(r.Start.Offset, len(startNode.Data))
	end := clamp(r.End.Offset, len(endNode.Data))

	if startNode == endNode {
		if start >= end {
			return nil, fmt.Errorf("degenerate range")
		}
		return wrapWithin(startNode, start, end, marker), nil
	}

	if startNode.Parent == nil || startNode.Parent != endNode.Parent {
		return nil, fmt.Errorf("range spans element boundaries")
	}
	parent := startNode.Parent

	// Split the boundary nodes so the range covers whole siblings, then move
	// that sibling run into the marker.
	first := splitAfter(startNode, start)
	last := splitBefore(endNode, end)

	parent.InsertBefore(marker, first)
	for n := first; n != nil; {
		next := n.NextSibling
		parent.RemoveChild(n)
		marker.AppendChild(n)
		if n == last {
			break
		}
		n = next
	}
	return marker, nil
}

// wrapWithin splits one text node into [before][marker(mid)][after].
func wrapWithin(node *html.Node, start, end int, marker *html.Node) *html.Node {
	parent := node.Parent
	before, mid, after := node.Data[:start], node.Data[start:end], node.Data[end:]

	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, node)
	}
	marker.AppendChild(&html.Node{Type: html.TextNode, Data: mid})
	parent.InsertBefore(marker, node)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, node)
	}
	parent.RemoveChild(node)
	return marker
}

// splitAfter splits a text node at off and returns the node holding the tail
// (the part inside the range). At off == 0 the whole node is the tail.
func splitAfter(node *html.Node, off int) *html.Node {
	if off <= 0 {
		return node
	}
	parent := node.Parent
	head := &html.Node{Type: html.TextNode, Data: node.Data[:off]}
	parent.InsertBefore(head, node)
	node.Data = node.Data[off:]
	return node
}

// splitBefore splits a text node at off and returns the node holding the head
// (the part inside the range). At off == len the whole node is the head.
func splitBefore(node *html.Node, off int) *html.Node {
	if off >= len(node.Data) {
		return node
	}
	parent := node.Parent
	head := &html.Node{Type: html.TextNode, Data: node.Data[:off]}
	parent.InsertBefore(head, node)
	node.Data = node.Data[off:]
	return head
}

// Unwrap replaces an element with its children, restoring the text nodes it
// was wrapped around.
func Unwrap(el *html.Node) {
	parent := el.Parent
	if parent == nil {
		return
	}
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		parent.InsertBefore(c, el)
		c = next
	}
	parent.RemoveChild(el)
}

// RemoveMarked unwraps every element carrying the given marker attribute and
// normalizes the tree afterwards so repeated passes do not fragment text
// nodes.
func (s *Surface) RemoveMarked(attrKey string) int {
	marked := s.QueryAllMarked(attrKey)
	for _, el := range marked {
		Unwrap(el)
	}
	if len(marked) > 0 {
		s.Normalize()
	}
	return len(marked)
}

// RemovePendingMark removes the temporary selection marker with the given id,
// if it is still in the tree.
func (s *Surface) RemovePendingMark(id string) {
	if el := findByAttr(s.root, AttrPendingID, id); el != nil {
		Unwrap(el)
		s.Normalize()
	}
}

// Normalize merges adjacent sibling text nodes and drops empty ones,
// container-wide. Text content is unchanged.
func (s *Surface) Normalize() {
	normalize(s.root)
}

func normalize(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" {
				n.RemoveChild(c)
			} else if next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				n.RemoveChild(next)
				continue // retry merge with the new next sibling
			}
		} else {
			normalize(c)
		}
		c = next
	}
}
