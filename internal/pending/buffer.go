// Package pending buffers rapid entry edits and writes them in batches. The
// last value put for a key wins.
package pending

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

// Key identifies one editable cell. Hour is -1 for period-level entries.
type Key struct {
	TaskID int64
	Kind   period.Kind
	Date   string
	Hour   int
}

// NewKey builds the key of a cell; the date is normalised to its period start.
func NewKey(taskID int64, k period.Kind, date time.Time, hour *int) Key {
	key := Key{TaskID: taskID, Kind: k, Date: period.FormatDate(k.Start(date)), Hour: -1}
	if hour != nil {
		key.Hour = *hour
	}
	return key
}

func (k Key) input(value float64) tracker.EntryInput {
	date, _ := period.ParseDate(k.Date)
	in := tracker.EntryInput{TaskID: k.TaskID, Kind: k.Kind, Date: date, Value: value}
	if k.Hour >= 0 {
		h := k.Hour
		in.Hour = &h
	}
	return in
}

// EntryWriter persists one entry. *tracker.Service implements it.
type EntryWriter interface {
	RecordEntry(ctx context.Context, in tracker.EntryInput) (store.Entry, error)
}

type Buffer struct {
	w   EntryWriter
	log hclog.Logger

	// flushMu serialises flushes so an older write never lands after a newer one.
	flushMu sync.Mutex

	mu    sync.Mutex
	edits map[Key]float64
	seq   map[Key]uint64
	next  uint64
}

func New(w EntryWriter, log hclog.Logger) *Buffer {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Buffer{
		w:     w,
		log:   log,
		edits: make(map[Key]float64),
		seq:   make(map[Key]uint64),
	}
}

// Put records an edit, replacing any pending value for the same key.
func (b *Buffer) Put(k Key, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.edits[k] = value
	b.seq[k] = b.next
}

// Get returns the pending value of a key.
func (b *Buffer) Get(k Key) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.edits[k]
	return v, ok
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.edits)
}

type edit struct {
	key   Key
	value float64
	seq   uint64
}

// Flush writes every pending edit in the order it was last put. Edits that
// fail stay buffered unless a newer value arrived meanwhile; rejected input
// (store.ErrInvalid, store.ErrNotFound) is dropped. The first error is
// returned. Concurrent calls run one after another.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	batch := make([]edit, 0, len(b.edits))
	for k, v := range b.edits {
		batch = append(batch, edit{key: k, value: v, seq: b.seq[k]})
	}
	b.mu.Unlock()
	sort.Slice(batch, func(i, j int) bool { return batch[i].seq < batch[j].seq })

	written := 0
	var firstErr error
	for _, e := range batch {
		_, err := b.w.RecordEntry(ctx, e.key.input(e.value))
		drop := err == nil || isRejected(err)
		if err != nil {
			b.log.Warn("pending edit not written", "task", e.key.TaskID, "kind", e.key.Kind, "date", e.key.Date, "hour", e.key.Hour, "dropped", drop, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			written++
		}
		if drop {
			b.mu.Lock()
			if b.seq[e.key] == e.seq {
				delete(b.edits, e.key)
				delete(b.seq, e.key)
			}
			b.mu.Unlock()
		}
	}
	if written > 0 {
		b.log.Debug("pending edits flushed", "written", written)
	}
	return written, firstErr
}

func isRejected(err error) bool {
	return errors.Is(err, store.ErrInvalid) || errors.Is(err, store.ErrNotFound)
}

// Run flushes every interval until ctx is cancelled, then flushes once more
// with a fresh context so nothing typed before shutdown is lost.
func (b *Buffer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush(ctx)
		case <-ctx.Done():
			b.Flush(context.Background())
			return
		}
	}
}
