// Package anchor resolves between character offsets in a content container's
// linearized text and positions inside its tree. Offsets count only
// text-bearing nodes in document order; element boundaries contribute nothing.
package anchor

import (
	"doc-annotator/internal/domain"
	"doc-annotator/internal/surface"

	"golang.org/x/net/html"
)

// OffsetAt computes the 0-based character offset of a caret given as a text
// node plus an intra-node offset. The intra-node offset is clamped to the
// node's current length, since content may have changed under a stored caret.
func OffsetAt(s *surface.Surface, node *html.Node, local int) (int, error) {
	acc := 0
	for _, tn := range s.TextNodes() {
		if tn == node {
			if local < 0 {
				local = 0
			}
			if local > len(tn.Data) {
				local = len(tn.Data)
			}
			return acc + local, nil
		}
		acc += len(tn.Data)
	}
	return 0, domain.ErrOffsetOutOfRange
}

// Locate finds the text node and intra-node offset owning a character offset.
// An offset landing exactly on a node boundary resolves to the end of the
// earlier node, so a range end never opens an empty span in the next node.
// Fails with ErrOffsetOutOfRange when the container holds fewer characters
// than the offset requires; the caller skips that one annotation.
func Locate(s *surface.Surface, offset int) (surface.Position, error) {
	if offset < 0 {
		return surface.Position{}, domain.ErrOffsetOutOfRange
	}
	acc := 0
	for _, tn := range s.TextNodes() {
		if acc+len(tn.Data) >= offset {
			return surface.Position{Node: tn, Offset: offset - acc}, nil
		}
		acc += len(tn.Data)
	}
	return surface.Position{}, domain.ErrOffsetOutOfRange
}

// LocateRange resolves a text anchor into a live range over the container.
// A start sitting exactly on a node boundary is advanced to offset 0 of the
// next text node: the range's first character lives there, and keeping the
// start in the earlier node would put the boundaries under different parents
// for a quote that exactly spans an inline element. The round trip is stable
// either way, since both positions map back to the same offset.
func LocateRange(s *surface.Surface, a *domain.TextAnchor) (*surface.Range, error) {
	if a == nil {
		return nil, domain.ErrInvalidAnchor
	}
	start, err := Locate(s, a.StartOffset)
	if err != nil {
		return nil, err
	}
	end, err := Locate(s, a.EndOffset)
	if err != nil {
		return nil, err
	}
	return &surface.Range{Start: advancePastBoundary(s, start), End: end}, nil
}

func advancePastBoundary(s *surface.Surface, pos surface.Position) surface.Position {
	nodes := s.TextNodes()
	for i := 0; i < len(nodes)-1; i++ {
		if nodes[i] == pos.Node && pos.Offset == len(nodes[i].Data) {
			pos = surface.Position{Node: nodes[i+1], Offset: 0}
		}
	}
	return pos
}
