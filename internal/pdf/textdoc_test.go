package pdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneUnitPerRune makes widths easy to reason about
func oneUnitPerRune(s string) float64 {
	return float64(len([]rune(s)))
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits on one line", "short text", 20, []string{"short text"}},
		{"greedy break", "aaa bbb ccc ddd", 8, []string{"aaa bbb", "ccc ddd"}},
		{"one word per line", "aaa bbb ccc ddd", 7, []string{"aaa", "bbb", "ccc", "ddd"}},
		{"two per line", "aa bb cc dd", 6, []string{"aa bb", "cc dd"}},
		{"exact width is too wide", "aa bb", 5, []string{"aa", "bb"}},
		{"long word alone", "tiny enormousword tiny", 6, []string{"tiny", "enormousword", "tiny"}},
		{"keeps paragraphs", "one\ntwo", 20, []string{"one", "two"}},
		{"keeps blank lines", "one\n\ntwo", 20, []string{"one", "", "two"}},
		{"collapses spaces", "a    b", 20, []string{"a b"}},
		{"windows newlines", "a\r\nb", 20, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapText(tt.text, tt.width, oneUnitPerRune))
		})
	}
}

func TestWrapText_LinesStayUnderWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 40)
	for _, line := range WrapText(text, 30, oneUnitPerRune) {
		assert.Less(t, oneUnitPerRune(line), 30.0, line)
	}
}

func TestSynthesizeTextDocument(t *testing.T) {
	data, err := SynthesizeTextDocument("Lease", strings.Repeat("word ", 2000))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	info, err := NewValidator(0).ValidateSource(data)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount, "overflowing body text is cut, not paginated")
	assert.InDelta(t, TextPageWidth, info.PageSizes[0].Width, 0.01)
	assert.InDelta(t, TextPageHeight, info.PageSizes[0].Height, 0.01)
}

func TestSynthesizeTextDocument_UntitledAndUnicode(t *testing.T) {
	data, err := SynthesizeTextDocument("", "Café déjà vu")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
