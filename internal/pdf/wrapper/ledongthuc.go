package wrapper

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// LedongthucLibrary implements PDFLibrary using ledongthuc/pdf. It is a
// lightweight, read-only parser used to sanity check uploaded sources
type LedongthucLibrary struct {
	config FactoryConfig
}

// NewLedongthucLibrary creates a new ledongthuc library wrapper
func NewLedongthucLibrary(config FactoryConfig) *LedongthucLibrary {
	return &LedongthucLibrary{config: config}
}

// Open parses a PDF held in memory. The parser panics on some malformed
// inputs, so panics are turned into errors
func (l *LedongthucLibrary) Open(data []byte) (doc PDFDocument, err error) {
	if len(data) == 0 {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: ErrEmptyDocument.Err}
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "open",
				Err:     fmt.Errorf("parser panic: %v", r),
			}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	return &LedongthucDocument{reader: reader}, nil
}

// GetLibraryType returns the library type
func (l *LedongthucLibrary) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// GetVersion returns the ledongthuc/pdf version
func (l *LedongthucLibrary) GetVersion() string {
	return "ledongthuc/pdf"
}

// LedongthucDocument implements PDFDocument using ledongthuc/pdf
type LedongthucDocument struct {
	reader *pdf.Reader
	closed bool
}

// GetPageCount returns the number of pages in the document
func (d *LedongthucDocument) GetPageCount() (n int, err error) {
	if d.closed {
		return 0, &WrapperError{Library: LibraryLedongthuc, Op: "get_page_count", Err: ErrDocumentClosed.Err}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_page_count", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()
	return d.reader.NumPage(), nil
}

// GetPageSize reads the page's own MediaBox. Inherited boxes are not
// resolved by this parser and yield US Letter
func (d *LedongthucDocument) GetPageSize(pageNum int) (size *PageSize, err error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "get_page_size", Err: ErrDocumentClosed.Err}
	}
	defer func() {
		if r := recover(); r != nil {
			size = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "get_page_size", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "get_page_size",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage.Err, pageNum, d.reader.NumPage()),
		}
	}

	page := d.reader.Page(pageNum)
	width, height := 612.0, 792.0
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.Kind() == pdf.Array && mediaBox.Len() == 4 {
		width = mediaBox.Index(2).Float64() - mediaBox.Index(0).Float64()
		height = mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	}
	rotation := int(page.V.Key("Rotate").Int64())
	w, h := rotated(width, height, rotation)
	return &PageSize{Width: w, Height: h, Rotation: rotation, Unit: "pt"}, nil
}

// Close closes the document
func (d *LedongthucDocument) Close() error {
	d.closed = true
	return nil
}
