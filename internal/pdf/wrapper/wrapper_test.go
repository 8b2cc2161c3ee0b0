package wrapper

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samplePDF builds a two page document: 600x800 portrait then landscape
func samplePDF(t *testing.T) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 600, Ht: 800})
	doc.Text(50, 50, "first page")
	doc.AddPageFormat("L", fpdf.SizeType{Wd: 600, Ht: 800})
	doc.Text(50, 50, "second page")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 12))
	for x := 0; x < 40; x++ {
		img.Set(x, 6, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPDFLibraryFactory_Create(t *testing.T) {
	factory := NewPDFLibraryFactory()
	assert.Equal(t, LibraryPDFCPU, factory.GetConfig().PreferredLibrary)

	tests := []struct {
		name        string
		libType     LibraryType
		expectError bool
	}{
		{"pdfcpu", LibraryPDFCPU, false},
		{"ledongthuc", LibraryLedongthuc, false},
		{"unknown", LibraryType("mupdf"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := factory.Create(tt.libType)
			if tt.expectError {
				require.Error(t, err)
				var wErr *WrapperError
				assert.True(t, errors.As(err, &wErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.libType, lib.GetLibraryType())
			assert.NotEmpty(t, lib.GetVersion())
		})
	}
}

func TestPDFLibraryFactory_MaxFileSize(t *testing.T) {
	factory := NewPDFLibraryFactoryWithConfig(FactoryConfig{MaxFileSize: 10})
	_, err := factory.Open(samplePDF(t))
	assert.Error(t, err)
	_, err = factory.OpenCanvas(samplePDF(t))
	assert.Error(t, err)
}

func TestLibraries_ReadPageGeometry(t *testing.T) {
	data := samplePDF(t)
	factory := NewPDFLibraryFactory()

	for _, libType := range []LibraryType{LibraryPDFCPU, LibraryLedongthuc} {
		t.Run(string(libType), func(t *testing.T) {
			lib, err := factory.Create(libType)
			require.NoError(t, err)

			doc, err := lib.Open(data)
			require.NoError(t, err)
			defer doc.Close()

			count, err := doc.GetPageCount()
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			size, err := doc.GetPageSize(1)
			require.NoError(t, err)
			assert.InDelta(t, 600, size.Width, 0.01)
			assert.InDelta(t, 800, size.Height, 0.01)

			size, err = doc.GetPageSize(2)
			require.NoError(t, err)
			assert.InDelta(t, 800, size.Width, 0.01)
			assert.InDelta(t, 600, size.Height, 0.01)

			_, err = doc.GetPageSize(3)
			assert.Error(t, err)
		})
	}
}

func TestLibraries_RejectGarbage(t *testing.T) {
	factory := NewPDFLibraryFactory()
	for _, libType := range []LibraryType{LibraryPDFCPU, LibraryLedongthuc} {
		lib, err := factory.Create(libType)
		require.NoError(t, err)

		_, err = lib.Open([]byte("definitely not a pdf"))
		assert.Error(t, err, string(libType))

		_, err = lib.Open(nil)
		assert.Error(t, err, string(libType))
	}
}

func TestCanvas_Stamps(t *testing.T) {
	data := samplePDF(t)
	canvas, err := NewPDFLibraryFactory().OpenCanvas(data)
	require.NoError(t, err)

	require.NoError(t, canvas.StampText(1, "Ada Lovelace", 100, 100, 14))
	afterText := canvas.Bytes()
	assert.NotEqual(t, data, afterText)

	require.NoError(t, canvas.StampImage(2, samplePNG(t), 20, 30, 2.5))
	afterImage := canvas.Bytes()
	assert.NotEqual(t, afterText, afterImage)

	reopened, err := NewPDFCPULibrary(FactoryConfig{}).Open(afterImage)
	require.NoError(t, err)
	count, err := reopened.GetPageCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCanvas_FailedStampKeepsDocument(t *testing.T) {
	canvas, err := NewPDFLibraryFactory().OpenCanvas(samplePDF(t))
	require.NoError(t, err)
	before := canvas.Bytes()

	assert.Error(t, canvas.StampText(5, "x", 0, 0, 12))
	assert.Error(t, canvas.StampText(1, "   ", 0, 0, 12))
	assert.Error(t, canvas.StampImage(1, samplePNG(t), 0, 0, 0))
	assert.Equal(t, before, canvas.Bytes())
}

func TestRotated(t *testing.T) {
	tests := []struct {
		rotation int
		w, h     float64
	}{
		{0, 600, 800},
		{90, 800, 600},
		{180, 600, 800},
		{270, 800, 600},
		{-90, 800, 600},
		{450, 800, 600},
	}
	for _, tt := range tests {
		w, h := rotated(600, 800, tt.rotation)
		assert.Equal(t, tt.w, w, "rotation %d", tt.rotation)
		assert.Equal(t, tt.h, h, "rotation %d", tt.rotation)
	}
}

func TestWrapperError(t *testing.T) {
	cause := errors.New("boom")
	err := &WrapperError{Library: LibraryPDFCPU, Op: "open", Err: cause}
	assert.Contains(t, err.Error(), "pdfcpu")
	assert.Contains(t, err.Error(), "open")
	assert.True(t, errors.Is(err, cause))
}
