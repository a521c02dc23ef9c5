package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunRenderRecord represents the render_records table for Bun ORM
type BunRenderRecord struct {
	bun.BaseModel `bun:"table:render_records,alias:rr"`

	ID         string    `bun:"id,pk"` // ULID stored as string
	PageIndex  int       `bun:"page_index,notnull"`
	Width      int       `bun:"width,notnull"`
	Height     int       `bun:"height,notnull"`
	Status     string    `bun:"status,notnull"`
	Error      string    `bun:"error,nullzero"`
	DurationMs int64     `bun:"duration_ms,notnull,default:0"`
	Document   string    `bun:"document,notnull,default:''"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToRenderRecord converts BunRenderRecord to RenderRecord
func (br *BunRenderRecord) ToRenderRecord() (*RenderRecord, error) {
	parsedULID, err := ulid.Parse(br.ID)
	if err != nil {
		return nil, err
	}

	return &RenderRecord{
		ID:         parsedULID,
		PageIndex:  br.PageIndex,
		Width:      br.Width,
		Height:     br.Height,
		Status:     RenderStatus(br.Status),
		Error:      br.Error,
		DurationMs: br.DurationMs,
		Document:   br.Document,
		CreatedAt:  br.CreatedAt,
	}, nil
}

// FromRenderRecord converts RenderRecord to BunRenderRecord
func FromRenderRecord(record *RenderRecord) *BunRenderRecord {
	return &BunRenderRecord{
		ID:         record.ID.String(),
		PageIndex:  record.PageIndex,
		Width:      record.Width,
		Height:     record.Height,
		Status:     string(record.Status),
		Error:      record.Error,
		DurationMs: record.DurationMs,
		Document:   record.Document,
		CreatedAt:  record.CreatedAt,
	}
}
