package database

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// RenderStatus is the outcome of a single render task
type RenderStatus string

const (
	RenderStatusRendered RenderStatus = "rendered"
	RenderStatusFailed   RenderStatus = "failed"
)

// RenderRecord is one finished render task, kept for the render log.
// The raster itself is never stored.
type RenderRecord struct {
	ID         ulid.ULID    `json:"id"`
	PageIndex  int          `json:"page"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Status     RenderStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"durationMs"`
	Document   string       `json:"document"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// RenderSummary aggregates the render log
type RenderSummary struct {
	Total         int        `json:"total"`
	Rendered      int        `json:"rendered"`
	Failed        int        `json:"failed"`
	DistinctPages int        `json:"distinctPages"`
	AvgDuration   float64    `json:"avgDurationMs"`
	LastRender    *time.Time `json:"lastRender,omitempty"`
}

// Repository defines database operations
type Repository interface {
	Close() error
	RecordRender(record *RenderRecord) error
	GetRecentRenders(limit, offset int) ([]RenderRecord, error)
	GetRendersForPage(pageIndex int) ([]RenderRecord, error)
	GetRenderSummary() (*RenderSummary, error)
	DeleteOldRenders(olderThan time.Duration) (int, error)
}

// NewRenderRecord builds a record for a task that finished now after duration d
func NewRenderRecord(document string, pageIndex, width, height int, d time.Duration, renderErr error) (*RenderRecord, error) {
	now := time.Now().UTC()
	id, err := CalculateUUID(now)
	if err != nil {
		return nil, err
	}
	record := &RenderRecord{
		ID:         id,
		PageIndex:  pageIndex,
		Width:      width,
		Height:     height,
		Status:     RenderStatusRendered,
		DurationMs: d.Milliseconds(),
		Document:   document,
		CreatedAt:  now,
	}
	if renderErr != nil {
		record.Status = RenderStatusFailed
		record.Error = renderErr.Error()
	}
	return record, nil
}

// CalculateUUID creates a ULID for the given time
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
