package surface

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Position is one boundary of a range: a text node plus an offset into its
// data.
type Position struct {
	Node   *html.Node
	Offset int
}

// Range is a contiguous span of the container's text between two positions.
// Start must not come after End in document order.
type Range struct {
	Start Position
	End   Position
}

// RangeText returns the stringified text covered by the range, the way a
// native selection stringifies: text node contents between the boundaries,
// element boundaries skipped.
func (s *Surface) RangeText(r *Range) (string, error) {
	nodes := s.TextNodes()
	si, ei := indexOf(nodes, r.Start.Node), indexOf(nodes, r.End.Node)
	if si < 0 || ei < 0 {
		return "", fmt.Errorf("range boundary not in container")
	}
	if si > ei {
		return "", fmt.Errorf("range boundaries out of order")
	}
	start := clamp(r.Start.Offset, len(nodes[si].Data))
	end := clamp(r.End.Offset, len(nodes[ei].Data))
	if si == ei {
		if start > end {
			return "", fmt.Errorf("range boundaries out of order")
		}
		return nodes[si].Data[start:end], nil
	}
	var b strings.Builder
	b.WriteString(nodes[si].Data[start:])
	for i := si + 1; i < ei; i++ {
		b.WriteString(nodes[i].Data)
	}
	b.WriteString(nodes[ei].Data[:end])
	return b.String(), nil
}

func indexOf(nodes []*html.Node, n *html.Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

func clamp(off, max int) int {
	if off < 0 {
		return 0
	}
	if off > max {
		return max
	}
	return off
}
