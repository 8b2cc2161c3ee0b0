// Package geometry tracks the natural size of every rendered page and maps
// between viewport, absolute document and page-relative coordinates
package geometry

import (
	"fmt"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

const (
	// DefaultPageHeight is used when no fallback height is configured
	DefaultPageHeight = 800.0
	// DefaultPageWidth is used when no fallback width is configured
	DefaultPageWidth = 612.0
)

// PageSize is the natural (scale 1) size of a rendered page
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Table holds per-page natural sizes as reported by the rendering surface.
// Pages may be reported in any order; the table is Ready once every page in
// 1..TotalPages has been recorded. A Table is owned by one session and is not
// safe for concurrent use
type Table struct {
	totalPages    int
	pages         map[int]PageSize
	defaultHeight float64
	defaultWidth  float64
}

// NewTable creates an empty table for a document with totalPages pages.
// Non-positive defaults are replaced by DefaultPageHeight/DefaultPageWidth
func NewTable(totalPages int, defaultHeight, defaultWidth float64) *Table {
	t := &Table{}
	t.setDefaults(defaultHeight, defaultWidth)
	t.Reset(totalPages)
	return t
}

func (t *Table) setDefaults(h, w float64) {
	if h <= 0 {
		h = DefaultPageHeight
	}
	if w <= 0 {
		w = DefaultPageWidth
	}
	t.defaultHeight = h
	t.defaultWidth = w
}

// Reset discards every recorded page and starts over for a new document
func (t *Table) Reset(totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	t.totalPages = totalPages
	t.pages = make(map[int]PageSize, totalPages)
}

// Record stores the natural size of one page. Recording the same page twice
// overwrites the earlier value
func (t *Table) Record(page int, width, height float64) error {
	if page < 1 || page > t.totalPages {
		return signerrors.Newf(signerrors.ErrorTypeInvalidArgument,
			"page %d out of range [1, %d]", page, t.totalPages)
	}
	t.pages[page] = PageSize{Width: width, Height: height}
	return nil
}

// TotalPages returns the page count of the loaded document
func (t *Table) TotalPages() int {
	return t.totalPages
}

// Known reports whether the size of page has been recorded
func (t *Table) Known(page int) bool {
	_, ok := t.pages[page]
	return ok
}

// KnownCount returns how many pages have been recorded so far
func (t *Table) KnownCount() int {
	return len(t.pages)
}

// Ready reports whether every page of the document has been recorded
func (t *Table) Ready() bool {
	return len(t.pages) == t.totalPages
}

// Height returns the natural height of page, falling back to the default
// height for unknown pages and for recorded heights that are not positive
func (t *Table) Height(page int) float64 {
	if size, ok := t.pages[page]; ok && size.Height > 0 {
		return size.Height
	}
	return t.defaultHeight
}

// Width returns the natural width of page with the same fallback rules as Height
func (t *Table) Width(page int) float64 {
	if size, ok := t.pages[page]; ok && size.Width > 0 {
		return size.Width
	}
	return t.defaultWidth
}

// Size returns both dimensions of page
func (t *Table) Size(page int) PageSize {
	return PageSize{Width: t.Width(page), Height: t.Height(page)}
}

// DefaultHeight returns the fallback page height
func (t *Table) DefaultHeight() float64 {
	return t.defaultHeight
}

// RequireReady returns ErrGeometryUnavailable until all pages are known
func (t *Table) RequireReady() error {
	if len(t.pages) == t.totalPages {
		return nil
	}
	return signerrors.New(signerrors.ErrorTypeGeometryUnavailable,
		"page geometry not loaded").
		WithContext(fmt.Sprintf("%d of %d pages known", len(t.pages), t.totalPages))
}
