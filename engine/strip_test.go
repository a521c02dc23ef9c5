package engine

import (
	"math"
	"slices"
	"testing"
)

func TestStripSlots(t *testing.T) {
	tests := []struct {
		name      string
		viewWidth int
		maxWidth  int
		want      int
	}{
		{"full width", 1080, 1080, 14},
		{"capped at max width", 2000, 1080, 14},
		{"no cap", 2000, 0, 26},
		{"narrow view", 400, 1080, 5},
		{"too narrow for one", 50, 1080, 1},
		{"negative width", -10, 1080, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSlots(tt.viewWidth, 60, 15, tt.maxWidth); got != tt.want {
				t.Errorf("StripSlots(%d, 60, 15, %d) = %d, want %d", tt.viewWidth, tt.maxWidth, got, tt.want)
			}
		})
	}

	if got := StripSlots(100, 0, 0, 0); got != 1 {
		t.Errorf("Expected degenerate thumbnail size to give 1 slot, got %d", got)
	}
}

func TestStripPages(t *testing.T) {
	tests := []struct {
		name      string
		pageCount int
		slots     int
		want      []int
	}{
		{"empty document", 0, 5, []int{}},
		{"fits", 5, 14, []int{0, 1, 2, 3, 4}},
		{"exact fit", 4, 4, []int{0, 1, 2, 3}},
		{"sampled", 100, 5, []int{0, 25, 50, 74, 99}},
		{"two slots", 10, 2, []int{0, 9}},
		{"one slot", 10, 1, []int{9}},
		{"zero slots", 3, 0, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripPages(tt.pageCount, tt.slots); !slices.Equal(got, tt.want) {
				t.Errorf("StripPages(%d, %d) = %v, want %v", tt.pageCount, tt.slots, got, tt.want)
			}
		})
	}
}

func TestStripPages_SortedAndDistinct(t *testing.T) {
	for pageCount := 1; pageCount <= 60; pageCount++ {
		for slots := 1; slots <= 20; slots++ {
			pages := StripPages(pageCount, slots)
			if len(pages) != min(pageCount, slots) {
				t.Fatalf("StripPages(%d, %d) returned %d pages", pageCount, slots, len(pages))
			}
			if pages[len(pages)-1] != pageCount-1 {
				t.Fatalf("StripPages(%d, %d) does not end on the last page: %v", pageCount, slots, pages)
			}
			for i := 1; i < len(pages); i++ {
				if pages[i] <= pages[i-1] {
					t.Fatalf("StripPages(%d, %d) not strictly increasing: %v", pageCount, slots, pages)
				}
			}
		}
	}
}

func TestPageForProgress(t *testing.T) {
	tests := []struct {
		progress  float64
		pageCount int
		want      int
	}{
		{0, 10, 0},
		{0.5, 10, 5},
		{0.99, 10, 9},
		{1, 10, 9},
		{1.5, 10, 9},
		{-0.2, 10, 0},
		{0.5, 0, 0},
		{math.NaN(), 10, 0},
		{math.Inf(1), 10, 9},
	}
	for _, tt := range tests {
		if got := PageForProgress(tt.progress, tt.pageCount); got != tt.want {
			t.Errorf("PageForProgress(%v, %d) = %d, want %d", tt.progress, tt.pageCount, got, tt.want)
		}
	}
}
