// Package rendercache stores finished page rasters keyed by page index.
//
// The cache has no eviction policy: the document's page count bounds it and callers only
// store thumbnail-sized rasters. Entries stay until Delete or Clear.
package rendercache

import (
	"image"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Result is a rendered page. Rect is where the raster sits inside the requested
// Width x Height box.
type Result struct {
	Image      image.Image
	Rect       image.Rectangle
	Width      int
	Height     int
	RenderedAt time.Time
	Elapsed    time.Duration // time spent rasterizing
}

// Valid reports whether the result holds a usable image. A zero Result, a nil image or an
// empty raster is treated as absent.
func (r Result) Valid() bool {
	return r.Image != nil && !r.Image.Bounds().Empty()
}

// Cache maps page index to Result. Reads and writes may happen concurrently; the last
// write for a page wins.
type Cache struct {
	entries *xsync.MapOf[int, Result]
}

// New returns an empty cache
func New() *Cache {
	return &Cache{entries: xsync.NewMapOf[int, Result]()}
}

// Get returns the stored result for page
func (c *Cache) Get(page int) (Result, bool) {
	return c.entries.Load(page)
}

// Put stores result for page, replacing any earlier entry
func (c *Cache) Put(page int, result Result) {
	c.entries.Store(page, result)
}

// Delete drops the entry for page
func (c *Cache) Delete(page int) {
	c.entries.Delete(page)
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached pages
func (c *Cache) Len() int {
	return c.entries.Size()
}
