// Package feed keeps the most recent display updates of a session and streams
// new ones to watchers.
package feed

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"storj.io/vcalc"
)

// DefaultSize is used when a Feed is created with a non-positive size.
const DefaultSize = 128

// Record is an update together with its position in the feed. Sequence
// numbers start at 1.
type Record struct {
	Seq    uint64       `json:"seq"`
	Update vcalc.Update `json:"update"`
}

// Feed is a fixed size ring of records. It is safe for concurrent use.
type Feed struct {
	slots   []atomic.Pointer[Record]
	pos     atomic.Uint64
	dropped atomic.Uint64

	wmu      sync.Mutex // held only to update the watcher list
	watchers atomic.Pointer[[]chan<- Record]
}

func New(size int) *Feed {
	if size <= 0 {
		size = DefaultSize
	}
	f := &Feed{slots: make([]atomic.Pointer[Record], size)}
	f.watchers.Store(new([]chan<- Record))
	return f
}

// Add appends u, overwriting the oldest record once the ring is full, and
// hands it to every watcher that has room for it.
func (f *Feed) Add(u vcalc.Update) Record {
	n := uint64(len(f.slots))
	i := f.pos.Add(1) - 1
	rec := Record{Seq: i + 1, Update: u}

	f.slots[i%n].Store(&rec)

	for _, ch := range *f.watchers.Load() {
		select {
		case ch <- rec:
		default:
			f.dropped.Add(1)
		}
	}
	return rec
}

// Last returns the sequence number of the newest record, or 0.
func (f *Feed) Last() uint64 { return f.pos.Load() }

// Dropped counts records a slow watcher did not receive.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

// Get returns the buffered records, oldest first.
func (f *Feed) Get() []Record { return f.Since(0) }

// Since returns the buffered records with a sequence number above seq,
// oldest first.
func (f *Feed) Since(seq uint64) []Record {
	pos := f.pos.Load()
	n := uint64(len(f.slots))
	start := max(seq, pos-min(pos, n))
	if start >= pos {
		return nil
	}

	out := make([]Record, 0, pos-start)
	for i := start; i < pos; i++ {
		// the slot may be empty, or already reused by a newer record.
		if rec := f.slots[i%n].Load(); rec != nil && rec.Seq == i+1 {
			out = append(out, *rec)
		}
	}
	return out
}

// Subscribe registers a watcher for records added from now on. The returned
// func unregisters it and must be called once the channel is no longer read.
func (f *Feed) Subscribe() (<-chan Record, func()) {
	ch := make(chan Record, 64)

	f.wmu.Lock()
	next := append(slices.Clone(*f.watchers.Load()), ch)
	f.watchers.Store(&next)
	f.wmu.Unlock()

	return ch, func() {
		f.wmu.Lock()
		defer f.wmu.Unlock()

		next := slices.DeleteFunc(
			slices.Clone(*f.watchers.Load()),
			func(w chan<- Record) bool { return w == ch },
		)
		f.watchers.Store(&next)
	}
}

// Watch calls cb with every record added after it starts and blocks until
// ctx is done.
func (f *Feed) Watch(ctx context.Context, cb func(Record)) {
	ch, done := f.Subscribe()
	defer done()

	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-ch:
			cb(rec)
		}
	}
}
