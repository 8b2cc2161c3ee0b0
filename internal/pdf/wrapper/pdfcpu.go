package wrapper

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPULibrary implements PDFLibrary using pdfcpu. Documents it opens are
// Canvases
type PDFCPULibrary struct {
	config FactoryConfig
}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary(config FactoryConfig) *PDFCPULibrary {
	return &PDFCPULibrary{config: config}
}

func (p *PDFCPULibrary) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if p.config.StrictValidation {
		conf.ValidationMode = model.ValidationStrict
	} else {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

// Open parses a PDF held in memory
func (p *PDFCPULibrary) Open(data []byte) (PDFDocument, error) {
	doc, err := p.OpenCanvas(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// OpenCanvas parses a PDF held in memory for stamping
func (p *PDFCPULibrary) OpenCanvas(data []byte) (*PDFCPUDocument, error) {
	if len(data) == 0 {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open", Err: ErrEmptyDocument.Err}
	}

	conf := p.configuration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	doc := &PDFCPUDocument{
		conf:      conf,
		data:      append([]byte(nil), data...),
		pageCount: ctx.PageCount,
		sizes:     make(map[int]*PageSize, ctx.PageCount),
	}
	for page := 1; page <= ctx.PageCount; page++ {
		size, err := pageSize(ctx, page)
		if err != nil {
			return nil, err
		}
		doc.sizes[page] = size
	}
	return doc, nil
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// GetVersion returns the pdfcpu version
func (p *PDFCPULibrary) GetVersion() string {
	return "pdfcpu-" + model.VersionStr
}

func pageSize(ctx *model.Context, pageNum int) (*PageSize, error) {
	_, _, attrs, err := ctx.PageDict(pageNum, false)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "page_size",
			Err:     fmt.Errorf("failed to get page %d dict: %w", pageNum, err),
		}
	}
	if attrs == nil || attrs.MediaBox == nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "page_size",
			Err:     fmt.Errorf("page %d has no media box", pageNum),
		}
	}

	box := attrs.MediaBox
	if attrs.CropBox != nil {
		box = attrs.CropBox
	}
	w, h := rotated(box.Width(), box.Height(), attrs.Rotate)
	return &PageSize{Width: w, Height: h, Rotation: attrs.Rotate, Unit: "pt"}, nil
}

// PDFCPUDocument is a Canvas backed by pdfcpu stamps. Page sizes are read
// once at open time; stamping never changes them
type PDFCPUDocument struct {
	conf      *model.Configuration
	data      []byte
	pageCount int
	sizes     map[int]*PageSize
	closed    bool
}

// GetPageCount returns the number of pages in the document
func (d *PDFCPUDocument) GetPageCount() (int, error) {
	if d.closed {
		return 0, &WrapperError{Library: LibraryPDFCPU, Op: "get_page_count", Err: ErrDocumentClosed.Err}
	}
	return d.pageCount, nil
}

// GetPageSize returns the displayed size of a page
func (d *PDFCPUDocument) GetPageSize(pageNum int) (*PageSize, error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "get_page_size", Err: ErrDocumentClosed.Err}
	}
	if err := d.checkPage("get_page_size", pageNum); err != nil {
		return nil, err
	}
	size := *d.sizes[pageNum]
	return &size, nil
}

// StampImage places a PNG on a page
func (d *PDFCPUDocument) StampImage(pageNum int, png []byte, x, y, scale float64) error {
	if err := d.checkPage("stamp_image", pageNum); err != nil {
		return err
	}
	if scale <= 0 {
		return &WrapperError{Library: LibraryPDFCPU, Op: "stamp_image", Err: fmt.Errorf("invalid scale %v", scale)}
	}

	desc := fmt.Sprintf("pos:bl, off:%s %s, scale:%s abs, rot:0, op:1",
		num(x), num(y), num(scale))
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(png), desc, true, false, types.POINTS)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "stamp_image", Err: err}
	}
	return d.apply("stamp_image", pageNum, wm)
}

// StampText places a single line of text on a page
func (d *PDFCPUDocument) StampText(pageNum int, text string, x, y, size float64) error {
	if err := d.checkPage("stamp_text", pageNum); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return &WrapperError{Library: LibraryPDFCPU, Op: "stamp_text", Err: fmt.Errorf("empty text")}
	}

	desc := fmt.Sprintf("font:Helvetica, points:%d, pos:bl, off:%s %s, scale:1 abs, rot:0, op:1, fillcolor:#000000",
		max(1, int(size+0.5)), num(x), num(y))
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: "stamp_text", Err: err}
	}
	return d.apply("stamp_text", pageNum, wm)
}

// Bytes returns the current document
func (d *PDFCPUDocument) Bytes() []byte {
	return d.data
}

// Close closes the document
func (d *PDFCPUDocument) Close() error {
	d.closed = true
	return nil
}

func (d *PDFCPUDocument) checkPage(op string, pageNum int) error {
	if d.closed {
		return &WrapperError{Library: LibraryPDFCPU, Op: op, Err: ErrDocumentClosed.Err}
	}
	if pageNum < 1 || pageNum > d.pageCount {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      op,
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage.Err, pageNum, d.pageCount),
		}
	}
	return nil
}

// apply writes the stamp into a new buffer and only then swaps it in
func (d *PDFCPUDocument) apply(op string, pageNum int, wm *model.Watermark) error {
	var out bytes.Buffer
	pages := []string{strconv.Itoa(pageNum)}
	if err := api.AddWatermarks(bytes.NewReader(d.data), &out, pages, wm, d.conf); err != nil {
		return &WrapperError{Library: LibraryPDFCPU, Op: op, Err: err}
	}
	d.data = out.Bytes()
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
