package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf/wrapper"
)

type stampCall struct {
	kind  string
	page  int
	text  string
	x, y  float64
	size  float64
	scale float64
}

// recordingCanvas counts stamping calls instead of writing a PDF
type recordingCanvas struct {
	pages      []wrapper.PageSize
	calls      []stampCall
	failImages bool
	closed     bool
}

func (c *recordingCanvas) GetPageCount() (int, error) { return len(c.pages), nil }

func (c *recordingCanvas) GetPageSize(page int) (*wrapper.PageSize, error) {
	if page < 1 || page > len(c.pages) {
		return nil, fmt.Errorf("no page %d", page)
	}
	size := c.pages[page-1]
	return &size, nil
}

func (c *recordingCanvas) Close() error {
	c.closed = true
	return nil
}

func (c *recordingCanvas) StampImage(page int, _ []byte, x, y, scale float64) error {
	if c.failImages {
		return errors.New("image rejected")
	}
	c.calls = append(c.calls, stampCall{kind: "image", page: page, x: x, y: y, scale: scale})
	return nil
}

func (c *recordingCanvas) StampText(page int, text string, x, y, size float64) error {
	c.calls = append(c.calls, stampCall{kind: "text", page: page, text: text, x: x, y: y, size: size})
	return nil
}

func (c *recordingCanvas) Bytes() []byte { return []byte("%PDF-fake") }

func newRecording(pages ...wrapper.PageSize) (*recordingCanvas, CanvasOpener) {
	canvas := &recordingCanvas{pages: pages}
	return canvas, func([]byte) (wrapper.Canvas, error) { return canvas, nil }
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 20))
	for x := 0; x < 80; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func signed(sd fields.SignedData) *fields.SignedData {
	return &sd
}

func field(id string, page int, x, y float64, sd *fields.SignedData) fields.DocumentField {
	return fields.DocumentField{
		ID: id, Type: fields.FieldTypeSignature, X: x, Y: y, Width: 100, Height: 30,
		RecipientID: "r1", Required: true, PageNumber: page, SignedData: sd,
	}
}

func pages(n int, w, h float64) []geometry.PageSize {
	out := make([]geometry.PageSize, n)
	for i := range out {
		out[i] = geometry.PageSize{Width: w, Height: h}
	}
	return out
}

func TestCompose_OnlySignedFieldsAreEmbedded(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open))

	job := ExportJob{
		Source: []byte("%PDF-source"),
		Fields: []fields.DocumentField{
			field("a", 1, 10, 10, signed(fields.NewTypedSignature("t", "Ada", "cursive"))),
			field("b", 1, 10, 100, nil),
			field("c", 1, 10, 200, signed(fields.NewSignedData(fields.SignedKindDrawnImage, "d", pngDataURL(t)))),
		},
		Rendered: pages(1, 600, 800),
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, res.EmbedCount)
	assert.Len(t, canvas.calls, 2, "one stamp per signed field")
	assert.Equal(t, 0, res.PlaceholderCount)
	assert.Empty(t, res.Warnings)
	assert.True(t, canvas.closed)
	assert.Equal(t, []byte("%PDF-fake"), res.Bytes)
}

func TestCompose_CorruptImageFallsBackToPlaceholder(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open))

	corrupt := fields.NewSignedData(fields.SignedKindDrawnImage, "bad",
		"data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("not an image")))
	job := ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 1, 10, 10, &corrupt)},
		Rendered: pages(1, 600, 800),
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, canvas.calls, 1)
	assert.Equal(t, "text", canvas.calls[0].kind)
	assert.Equal(t, PlaceholderLabel, canvas.calls[0].text)
	assert.Equal(t, 12.0, canvas.calls[0].size)
	assert.Equal(t, 1, res.PlaceholderCount)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "IMAGE_DECODE_FAILURE")
}

func TestCompose_StampFailureFallsBackToPlaceholder(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	canvas.failImages = true
	c := NewCompositor(WithCanvasOpener(open))

	job := ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 1, 10, 10, signed(fields.NewSignedData(fields.SignedKindUploadedImage, "u", pngDataURL(t))))},
		Rendered: pages(1, 600, 800),
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, canvas.calls, 1)
	assert.Equal(t, PlaceholderLabel, canvas.calls[0].text)
	assert.Equal(t, 1, res.PlaceholderCount)
}

func TestCompose_MissingPageIsSkippedWithWarning(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open))

	job := ExportJob{
		Source: []byte("%PDF-source"),
		Fields: []fields.DocumentField{
			field("gone", 3, 10, 1700, signed(fields.NewTypedSignature("t", "Ada", ""))),
			field("here", 1, 10, 10, signed(fields.NewTypedSignature("t", "Ada", ""))),
		},
		Rendered: pages(3, 600, 800),
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, res.SkippedFields)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "MISSING_PAGE")
	assert.Equal(t, 1, res.EmbedCount)
	assert.Len(t, canvas.calls, 1)
}

func TestCompose_ProjectsIntoPageSpace(t *testing.T) {
	canvas, open := newRecording(
		wrapper.PageSize{Width: 600, Height: 800},
		wrapper.PageSize{Width: 600, Height: 800},
	)
	c := NewCompositor(WithCanvasOpener(open))

	job := ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 2, 30, 450, signed(fields.NewTypedSignature("t", "Ada", "")))},
		Rendered: pages(2, 300, 400),
	}

	_, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, canvas.calls, 1)

	call := canvas.calls[0]
	assert.Equal(t, 2, call.page)
	assert.InDelta(t, 60, call.x, 1e-9)
	// relative y 50 at scale 2 is 100 from the top; field height is 60
	assert.InDelta(t, 640+(60-14)/2.0, call.y, 1e-9)
	assert.Equal(t, "Ada", call.text)
	assert.Equal(t, 14.0, call.size)
}

func TestCompose_SidebarOffset(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open), WithSidebarOffset(20))

	job := ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 1, 50, 0, signed(fields.NewTypedSignature("t", "Ada", "")))},
		Rendered: pages(1, 600, 800),
	}
	_, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, canvas.calls, 1)
	assert.InDelta(t, 30, canvas.calls[0].x, 1e-9)
}

func TestCompose_ImageScaleFillsField(t *testing.T) {
	canvas, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open))

	job := ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 1, 10, 10, signed(fields.NewSignedData(fields.SignedKindDrawnImage, "d", pngDataURL(t))))},
		Rendered: pages(1, 600, 800),
	}
	_, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	require.Len(t, canvas.calls, 1)

	// an 80x20 image on a 100x30 field is padded to 80 px wide
	assert.InDelta(t, 100.0/80.0, canvas.calls[0].scale, 1e-9)
	assert.InDelta(t, 800-10-30, canvas.calls[0].y, 1e-9)
}

func TestCompose_UnreadableSourceIsFatal(t *testing.T) {
	c := NewCompositor(WithCanvasOpener(func([]byte) (wrapper.Canvas, error) {
		return nil, errors.New("xref table broken")
	}))

	_, err := c.Compose(context.Background(), ExportJob{Source: []byte("junk")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, signerrors.ErrExportFatal))
}

func TestCompose_CancelledContext(t *testing.T) {
	_, open := newRecording(wrapper.PageSize{Width: 600, Height: 800})
	c := NewCompositor(WithCanvasOpener(open))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compose(ctx, ExportJob{
		Source:   []byte("%PDF-source"),
		Fields:   []fields.DocumentField{field("a", 1, 10, 10, signed(fields.NewTypedSignature("t", "Ada", "")))},
		Rendered: pages(1, 600, 800),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProject_ClampsToPage(t *testing.T) {
	pdf := geometry.PageSize{Width: 600, Height: 800}
	f := fields.DocumentField{X: 580, Width: 100, Height: 30, PageNumber: 1}

	p := Project(f, 790, pdf, pdf, 0)
	assert.Equal(t, 500.0, p.X)
	assert.Equal(t, 0.0, p.Y)

	f.X = -40
	p = Project(f, -20, pdf, pdf, 0)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 770.0, p.Y)
}

func sourcePDF(t *testing.T, pageCount int) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 1; i <= pageCount; i++ {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: 612, Ht: 792})
		doc.Text(72, 72, fmt.Sprintf("Page %d", i))
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestCompose_RealPDF(t *testing.T) {
	source := sourcePDF(t, 2)
	c := NewCompositor()

	job := ExportJob{
		Source: source,
		Fields: []fields.DocumentField{
			field("img", 1, 100, 600, signed(fields.NewSignedData(fields.SignedKindDrawnImage, "d", pngDataURL(t)))),
			field("txt", 2, 100, 792+600, signed(fields.NewTypedSignature("t", "Ada Lovelace", "cursive"))),
		},
		Rendered: pages(2, 612, 792),
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)
	assert.Equal(t, 2, res.EmbedCount)
	assert.Equal(t, 0, res.PlaceholderCount)
	assert.NotEqual(t, source, res.Bytes)

	info, err := NewValidator(0).ValidateSource(res.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 2, info.PageCount)
}

func TestCompose_TextDocument(t *testing.T) {
	c := NewCompositor()
	job := ExportJob{
		Title: "Agreement",
		Text:  "The parties agree.\n\nSigned below.",
		Fields: []fields.DocumentField{
			field("txt", 1, 50, 700, signed(fields.NewTypedSignature("t", "Ada Lovelace", ""))),
			field("far", 2, 50, 900, signed(fields.NewTypedSignature("t", "Ada Lovelace", ""))),
		},
	}

	res, err := c.Compose(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageCount)
	assert.Equal(t, 1, res.EmbedCount)
	assert.Equal(t, []string{"far"}, res.SkippedFields)
	assert.True(t, bytes.HasPrefix(res.Bytes, []byte("%PDF-")))
}
