package engine

import (
	"sync"
	"time"

	"github.com/drummonds/pagestrip/database"
	"github.com/drummonds/pagestrip/engine/rendercache"
	"github.com/drummonds/pagestrip/engine/thumbs"
)

// renderLogBuffer is how many records may wait for the database before new ones are dropped
const renderLogBuffer = 256

// renderLog writes render records to the database from its own goroutine, so the render
// worker never waits on a database round trip. One is owned by each open document.
type renderLog struct {
	db       database.Repository
	document string
	records  chan *database.RenderRecord
	pending  sync.WaitGroup
	done     chan struct{}
}

func newRenderLog(db database.Repository, document string) *renderLog {
	l := &renderLog{
		db:       db,
		document: document,
		records:  make(chan *database.RenderRecord, renderLogBuffer),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *renderLog) run() {
	defer close(l.done)
	for record := range l.records {
		if err := l.db.RecordRender(record); err != nil {
			Logger.Error("Failed to record render", "page", record.PageIndex, "error", err)
		}
		l.pending.Done()
	}
}

// rendered is the scheduler's OnRendered callback
func (l *renderLog) rendered(result rendercache.Result, pageIndex, width, height int) {
	l.add(pageIndex, width, height, result.Elapsed, nil)
}

// failed is the scheduler's OnFailed callback
func (l *renderLog) failed(pageIndex, width, height int, err error) {
	l.add(pageIndex, width, height, 0, err)
}

// add hands a record to the writer without blocking. It is dropped when the buffer is full.
func (l *renderLog) add(pageIndex, width, height int, d time.Duration, renderErr error) {
	record, err := database.NewRenderRecord(l.document, pageIndex, width, height, d, renderErr)
	if err != nil {
		Logger.Error("Failed to build render record", "page", pageIndex, "error", err)
		return
	}
	l.pending.Add(1)
	select {
	case l.records <- record:
	default:
		l.pending.Done()
		Logger.Debug("Render log buffer full, dropping record", "page", pageIndex)
	}
}

// wait blocks until every queued record has been written
func (l *renderLog) wait() {
	l.pending.Wait()
}

// close writes what is queued and stops the writer. The scheduler feeding it must have
// finished first.
func (l *renderLog) close() {
	close(l.records)
	<-l.done
}

// callbacks returns the scheduler hooks, nil when there is no render log
func (l *renderLog) callbacks() (thumbs.RenderedFunc, thumbs.FailedFunc) {
	if l == nil {
		return nil, nil
	}
	return l.rendered, l.failed
}
