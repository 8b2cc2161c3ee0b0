package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf/wrapper"
)

// CanvasOpener opens document bytes for stamping
type CanvasOpener func(data []byte) (wrapper.Canvas, error)

// Compositor burns signed field content into the final PDF
type Compositor struct {
	open          CanvasOpener
	sidebarOffset float64
	images        *ImageCache
	logger        *slog.Logger
}

// CompositorOption configures a Compositor
type CompositorOption func(*Compositor)

// WithCanvasOpener replaces the PDF library used for stamping
func WithCanvasOpener(open CanvasOpener) CompositorOption {
	return func(c *Compositor) {
		c.open = open
	}
}

// WithSidebarOffset sets the horizontal correction subtracted from field X
// before scaling. It compensates for UI chrome to the left of the pages
func WithSidebarOffset(offset float64) CompositorOption {
	return func(c *Compositor) {
		c.sidebarOffset = offset
	}
}

// WithImageCacheSize bounds how many normalized signature images are kept
// across exports
func WithImageCacheSize(size int) CompositorOption {
	return func(c *Compositor) {
		c.images = NewImageCache(size)
	}
}

// WithLogger sets the compositor's logger
func WithLogger(logger *slog.Logger) CompositorOption {
	return func(c *Compositor) {
		c.logger = logger
	}
}

// NewCompositor creates a compositor stamping with pdfcpu
func NewCompositor(opts ...CompositorOption) *Compositor {
	c := &Compositor{
		open:   wrapper.NewPDFLibraryFactory().OpenCanvas,
		images: NewImageCache(DefaultImageCacheSize),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Compose produces the final document. Fields without signed data are never
// visited. A field on a page the document does not have, or whose content
// cannot be embedded, degrades to a warning; only an unreadable source fails
// the export. Fields are embedded one at a time, grouped by page
func (c *Compositor) Compose(ctx context.Context, job ExportJob) (*ExportResult, error) {
	source := job.Source
	rendered := renderedPages(job.Rendered)
	offset := c.sidebarOffset
	if job.IsText() {
		var err error
		source, err = SynthesizeTextDocument(job.Title, job.Text)
		if err != nil {
			return nil, err
		}
		// Text documents are laid out at PDF scale on a single page
		rendered = renderedPages{{Width: TextPageWidth, Height: TextPageHeight}}
		offset = 0
	}

	canvas, err := c.open(source)
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "source document cannot be read", err)
	}
	defer canvas.Close()

	pageCount, err := canvas.GetPageCount()
	if err != nil {
		return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "source document has no page tree", err)
	}

	result := &ExportResult{PageCount: pageCount, SkippedFields: []string{}, Warnings: []string{}}
	problems := signerrors.NewErrorCollection()
	mapper := geometry.NewMapper(rendered)

	for _, f := range signedByPage(job.Fields) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if f.PageNumber < 1 || f.PageNumber > pageCount {
			problems.Add(signerrors.Newf(signerrors.ErrorTypeMissingPage,
				"field %s is on page %d but the document has %d page(s)", f.ID, f.PageNumber, pageCount).
				WithField(f.ID).WithPage(f.PageNumber))
			result.SkippedFields = append(result.SkippedFields, f.ID)
			c.logger.Warn("skipping field on missing page", "field", f.ID, "page", f.PageNumber, "pages", pageCount)
			continue
		}

		pdfSize, err := canvas.GetPageSize(f.PageNumber)
		if err != nil {
			return nil, signerrors.Wrap(signerrors.ErrorTypeExportFatal, "cannot read page size", err).WithPage(f.PageNumber)
		}
		view, ok := rendered.size(f.PageNumber)
		if !ok {
			view = geometry.PageSize{Width: pdfSize.Width, Height: pdfSize.Height}
		}

		p := Project(f, mapper.RelativeY(f.Y, f.PageNumber), view,
			geometry.PageSize{Width: pdfSize.Width, Height: pdfSize.Height}, offset)

		result.EmbedCount++
		if embedErr := c.embed(canvas, f, p); embedErr != nil {
			problems.Add(embedErr)
			c.logger.Warn("embedding failed, drawing placeholder", "field", f.ID, "page", f.PageNumber, "error", embedErr)
			if err := c.placeholder(canvas, p); err != nil {
				problems.Add(signerrors.Wrap(signerrors.ErrorTypeImageDecodeFailure, "placeholder could not be drawn", err).
					WithField(f.ID).WithPage(f.PageNumber))
				result.SkippedFields = append(result.SkippedFields, f.ID)
				continue
			}
			result.PlaceholderCount++
		}
	}

	result.Warnings = problems.WarningMessages()
	result.Bytes = canvas.Bytes()
	c.logger.Info("export composed",
		"pages", pageCount,
		"embedded", result.EmbedCount,
		"placeholders", result.PlaceholderCount,
		"skipped", len(result.SkippedFields))
	if stats := c.images.Stats(); stats.Hits+stats.Misses > 0 {
		c.logger.Debug("signature image cache", "hits", stats.Hits, "misses", stats.Misses, "size", stats.Size)
	}
	return result, nil
}

// Project maps a field into PDF space. relativeY is the field's Y measured
// from the top of its page in rendered units; view and pdf are that page's
// rendered and true sizes. The result is clamped to the page
func Project(f fields.DocumentField, relativeY float64, view, pdf geometry.PageSize, offset float64) Placement {
	scaleX := pdf.Width / view.Width
	scaleY := pdf.Height / view.Height

	w := f.Width * scaleX
	h := f.Height * scaleY
	x := (f.X - offset) * scaleX
	y := pdf.Height - relativeY*scaleY - h

	return Placement{
		Page:   f.PageNumber,
		X:      clamp(x, 0, pdf.Width-w),
		Y:      clamp(y, 0, pdf.Height-h),
		Width:  w,
		Height: h,
	}
}

func (c *Compositor) embed(canvas wrapper.Canvas, f fields.DocumentField, p Placement) *signerrors.SignerError {
	sd := f.SignedData
	if sd.Kind.IsImage() {
		raw, err := sd.ImageBytes()
		if err != nil {
			return decodeFailure(f, err)
		}
		img, err := c.images.Normalize(raw, p.Width, p.Height)
		if err != nil {
			return decodeFailure(f, err)
		}
		if err := canvas.StampImage(p.Page, img.PNG, p.X, p.Y, img.ScaleFor(p.Width)); err != nil {
			return decodeFailure(f, err)
		}
		return nil
	}

	typed, err := sd.Typed()
	if err != nil {
		return decodeFailure(f, err)
	}
	size := math.Min(p.Height*0.7, 14)
	if err := canvas.StampText(p.Page, typed.Text, p.X, p.Y+(p.Height-size)/2, size); err != nil {
		return decodeFailure(f, err)
	}
	return nil
}

func (c *Compositor) placeholder(canvas wrapper.Canvas, p Placement) error {
	size := math.Min(p.Height*0.6, 12)
	return canvas.StampText(p.Page, PlaceholderLabel, p.X, p.Y+p.Height/2, size)
}

func decodeFailure(f fields.DocumentField, err error) *signerrors.SignerError {
	return signerrors.Wrap(signerrors.ErrorTypeImageDecodeFailure,
		fmt.Sprintf("signed content of field %s cannot be embedded", f.ID), err).
		WithField(f.ID).WithPage(f.PageNumber)
}

// signedByPage keeps signed fields, ordered by page and then by placement order
func signedByPage(all []fields.DocumentField) []fields.DocumentField {
	signed := make([]fields.DocumentField, 0, len(all))
	for _, f := range all {
		if f.IsSigned() {
			signed = append(signed, f)
		}
	}
	sort.SliceStable(signed, func(i, j int) bool {
		return signed[i].PageNumber < signed[j].PageNumber
	})
	return signed
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// ImageCacheStats reports how often normalized signature images were reused
func (c *Compositor) ImageCacheStats() CacheStats {
	return c.images.Stats()
}
