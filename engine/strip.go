package engine

import "math"

// StripSlots returns how many thumbnails of thumbWidth fit side by side in a strip
// viewWidth wide, with padding before each one. The strip never grows past maxWidth.
// At least one slot is always returned.
func StripSlots(viewWidth, thumbWidth, padding, maxWidth int) int {
	width := viewWidth
	if maxWidth > 0 && width > maxWidth {
		width = maxWidth
	}
	step := thumbWidth + padding
	if step <= 0 {
		return 1
	}
	slots := (width - padding) / step
	if slots < 1 {
		return 1
	}
	return slots
}

// StripPages picks the pages shown in a strip with the given number of slots. Short
// documents show every page; longer ones are sampled evenly and always end on the last page.
func StripPages(pageCount, slots int) []int {
	if pageCount <= 0 {
		return []int{}
	}
	if slots < 1 {
		slots = 1
	}
	pages := make([]int, 0, min(pageCount, slots))
	if pageCount <= slots {
		for i := range pageCount {
			pages = append(pages, i)
		}
		return pages
	}

	if slots > 1 {
		gap := float64(pageCount-1) / float64(slots-1)
		for i := range slots - 1 {
			pages = append(pages, int(math.Floor(float64(i)*gap+0.5)))
		}
	}
	return append(pages, pageCount-1)
}

// PageForProgress maps a scrub position in [0,1] across the strip to a page index
func PageForProgress(progress float64, pageCount int) int {
	if pageCount <= 0 || math.IsNaN(progress) {
		return 0
	}
	progress = max(0, min(progress, 1))
	return min(int(progress*float64(pageCount)), pageCount-1)
}
