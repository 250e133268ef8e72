package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintParamsFor_A4Portrait(t *testing.T) {
	p := printParamsFor(&RenderRequest{
		HTML:      "<p>x</p>",
		PaperSize: PaperSizeA4,
		Margins:   DefaultMargins(),
	})

	assert.InDelta(t, 8.27, p.paperWidth, 0.01)
	assert.InDelta(t, 11.69, p.paperHeight, 0.01)
	assert.InDelta(t, mmToInches(10), p.marginLeft, 0.001)
	assert.False(t, p.landscape)
	assert.Empty(t, p.footer)
}

func TestPrintParamsFor_FooterWidensBottomMargin(t *testing.T) {
	p := printParamsFor(&RenderRequest{
		PaperSize:   PaperSizeA5,
		Orientation: OrientationLandscape,
		Margins:     Margins{Bottom: 2},
		FooterHTML:  `<span class="pageNumber"></span>`,
	})

	assert.True(t, p.landscape)
	assert.InDelta(t, mmToInches(minFooterMargin), p.marginBottom, 0.001)
	assert.InDelta(t, mmToInches(148), p.paperWidth, 0.001)
}

func TestCompleteHTML(t *testing.T) {
	t.Run("fragment is wrapped", func(t *testing.T) {
		out := completeHTML(&RenderRequest{HTML: "<p>hi</p>", Title: "A&B"})
		assert.Contains(t, out, `<meta charset="UTF-8">`)
		assert.Contains(t, out, "<title>A&amp;B</title>")
		assert.Contains(t, out, "<body><p>hi</p></body>")
	})

	t.Run("full document is kept", func(t *testing.T) {
		doc := "<!DOCTYPE html><html><body>x</body></html>"
		assert.Equal(t, doc, completeHTML(&RenderRequest{HTML: doc}))
	})
}
