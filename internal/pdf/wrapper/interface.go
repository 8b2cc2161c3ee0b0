package wrapper

import (
	"fmt"
)

// PDFLibrary defines the unified interface for opening PDFs across the
// supported libraries
type PDFLibrary interface {
	Open(data []byte) (PDFDocument, error)

	// Library identification
	GetLibraryType() LibraryType
	GetVersion() string
}

// PDFDocument is a parsed, read-only view of a PDF
type PDFDocument interface {
	GetPageCount() (int, error)
	GetPageSize(pageNum int) (*PageSize, error)
	Close() error
}

// Canvas is a PDF whose pages can be stamped. Each stamp is applied to a fresh
// copy of the document, so a failed stamp leaves the previous bytes intact.
// Coordinates are PDF points with the origin at the bottom-left of the page
type Canvas interface {
	PDFDocument

	// StampImage draws a PNG with its lower-left corner at (x, y), scaled by
	// scale relative to its pixel size
	StampImage(pageNum int, png []byte, x, y, scale float64) error

	// StampText draws Helvetica text with its baseline box starting at (x, y)
	StampText(pageNum int, text string, x, y, size float64) error

	// Bytes returns the current document
	Bytes() []byte
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// PageSize represents the displayed dimensions of a PDF page in points.
// Width and Height already account for Rotation
type PageSize struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation,omitempty"`
	Unit     string  `json:"unit"`
}

// rotated swaps the media box dimensions for quarter turns
func rotated(width, height float64, rotation int) (float64, float64) {
	r := ((rotation % 360) + 360) % 360
	if r == 90 || r == 270 {
		return height, width
	}
	return width, height
}

// Error types for wrapper operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrUnsupportedLibrary = &WrapperError{Op: "factory", Err: fmt.Errorf("unsupported library type")}
	ErrDocumentClosed     = &WrapperError{Op: "document", Err: fmt.Errorf("document is closed")}
	ErrInvalidPage        = &WrapperError{Op: "page", Err: fmt.Errorf("invalid page number")}
	ErrEmptyDocument      = &WrapperError{Op: "open", Err: fmt.Errorf("document has no content")}
)
