package thumbs

import (
	"image"
	"math"

	"github.com/drummonds/pagestrip/engine/pdfrenderer"
)

// FitInPage scales a page of the given native size to fit a width x height box while
// keeping its aspect ratio, and centres it. The returned rectangle is in box coordinates.
// Degenerate inputs give an empty rectangle.
func FitInPage(page pdfrenderer.Size, width, height int) image.Rectangle {
	if page.Width <= 0 || page.Height <= 0 || width <= 0 || height <= 0 {
		return image.Rectangle{}
	}
	scale := math.Min(float64(width)/page.Width, float64(height)/page.Height)
	realWidth := int(page.Width * scale)
	realHeight := int(page.Height * scale)
	left := (width - realWidth) / 2
	top := (height - realHeight) / 2
	return image.Rect(left, top, left+realWidth, top+realHeight)
}
