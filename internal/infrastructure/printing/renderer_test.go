package printing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaperSize(t *testing.T) {
	assert.Equal(t, PaperSizeA5, ParsePaperSize(" a5 "))
	assert.Equal(t, PaperSizeLetter, ParsePaperSize("letter"))
	assert.Equal(t, PaperSizeA4, ParsePaperSize("B5"))
	assert.Equal(t, PaperSizeA4, ParsePaperSize(""))
}

func TestPaperSize_Dimensions(t *testing.T) {
	w, h := PaperSizeA4.Dimensions()
	assert.Equal(t, 210.0, w)
	assert.Equal(t, 297.0, h)

	w, h = PaperSizeA5.Dimensions()
	assert.Equal(t, 148.0, w)
	assert.Equal(t, 210.0, h)

	assert.False(t, PaperSize("B5").IsValid())
}

func TestRenderError(t *testing.T) {
	cause := errors.New("browser gone")
	err := NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", cause)

	assert.Equal(t, "chromedp execution failed: browser gone", err.Error())
	assert.ErrorIs(t, err, cause)

	var re *RenderError
	require.ErrorAs(t, error(err), &re)
	assert.Equal(t, ErrCodeRenderFailed, re.Code)
}

func TestChromedpRenderer_RejectsInvalidDocuments(t *testing.T) {
	r := &ChromedpRenderer{}

	tests := []struct {
		name string
		req  *RenderRequest
	}{
		{"nil request", nil},
		{"blank html", &RenderRequest{HTML: "   ", PaperSize: PaperSizeA4}},
		{"unknown paper", &RenderRequest{HTML: "<p>x</p>", PaperSize: "B5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tt.req)
			var re *RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, ErrCodeInvalidDocument, re.Code)
		})
	}
}
