package geometry

// Heights is the read side of a page table the mapper walks
type Heights interface {
	TotalPages() int
	Height(page int) float64
}

// Mapper converts between coordinate spaces over a page table. It holds no
// state of its own
type Mapper struct {
	pages Heights
}

// NewMapper returns a mapper reading page heights from pages
func NewMapper(pages Heights) Mapper {
	return Mapper{pages: pages}
}

// Point is a position in document space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// height never returns a non-positive value so accumulation always advances
func (m Mapper) height(page int) float64 {
	h := m.pages.Height(page)
	if h <= 0 {
		return DefaultPageHeight
	}
	return h
}

// PageForAbsoluteY returns the page whose cumulative bottom edge is the first
// to reach y. Values past the end of the document resolve to the last page and
// values at or above the top resolve to page 1
func (m Mapper) PageForAbsoluteY(y float64) int {
	total := m.pages.TotalPages()
	if total < 1 {
		return 1
	}
	accumulated := 0.0
	for page := 1; page <= total; page++ {
		accumulated += m.height(page)
		if y <= accumulated {
			return page
		}
	}
	return total
}

// PageTop returns the absolute Y of the top edge of page
func (m Mapper) PageTop(page int) float64 {
	top := 0.0
	for p := 1; p < page; p++ {
		top += m.height(p)
	}
	return top
}

// RelativeY converts an absolute Y into a Y measured from the top of page
func (m Mapper) RelativeY(absoluteY float64, page int) float64 {
	return absoluteY - m.PageTop(page)
}

// AbsoluteY converts a page-relative Y back into absolute document space
func (m Mapper) AbsoluteY(relativeY float64, page int) float64 {
	return m.PageTop(page) + relativeY
}

// TotalHeight is the height of the whole concatenated page strip
func (m Mapper) TotalHeight() float64 {
	return m.PageTop(m.pages.TotalPages() + 1)
}

// ViewportToDocument converts a pointer position inside the scroll container
// into document space. scrollOffset is the container's scrollTop and scale the
// current zoom; both are read at the instant of the event
func ViewportToDocument(pointerX, pointerY, scrollOffset, scale float64) Point {
	if scale <= 0 {
		scale = 1
	}
	return Point{
		X: pointerX / scale,
		Y: (pointerY + scrollOffset) / scale,
	}
}

// Rect is an axis-aligned rectangle
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentToViewport projects a document-space rectangle into viewport pixels
// for overlay drawing at the given scroll offset and zoom. It is the inverse of
// ViewportToDocument
func DocumentToViewport(r Rect, scrollOffset, scale float64) Rect {
	if scale <= 0 {
		scale = 1
	}
	return Rect{
		X:      r.X * scale,
		Y:      r.Y*scale - scrollOffset,
		Width:  r.Width * scale,
		Height: r.Height * scale,
	}
}
