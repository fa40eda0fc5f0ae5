package domain

// TextSelection is the in-progress selection prior to annotation creation.
// It mirrors the anchor shapes plus the live selected text. For flowed text,
// PendingMarkID names the disposable marker element painted over the selection
// so it can be removed on commit or cancel. Never persisted.
type TextSelection struct {
	Text string

	TextAnchor   *TextAnchor
	RegionAnchor *RegionAnchor

	PendingMarkID string
}

// DocumentLevel reports whether the selection is the zero-length no-op anchor
// used for commenting on the document as a whole.
func (s *TextSelection) DocumentLevel() bool {
	if s == nil {
		return true
	}
	if s.TextAnchor != nil {
		return s.TextAnchor.Degenerate()
	}
	if s.RegionAnchor != nil {
		return s.RegionAnchor.Bounds.Width == 0 && s.RegionAnchor.Bounds.Height == 0
	}
	return true
}

// PageSelection is what a fixed-layout rendering surface reports when the
// user finishes a selection gesture: page-relative normalized line rects plus
// the selected text.
type PageSelection struct {
	PageNumber int
	Text       string
	LineRects  []Rect
}
