// Package mediagroup collects the photos of a Telegram album, which arrive as
// separate updates, into one Group delivered after a quiet period.
package mediagroup

import (
	"sync"
	"time"
)

// Telegram albums hold at most ten items.
const maxGroupSize = 10

const defaultDebounce = 1200 * time.Millisecond

type Item struct {
	ChatID       int64
	UserID       int64
	Username     string
	MediaGroupID string
	Caption      string
	FileID       string
}

// Group is one album in arrival order. Caption is the last non-empty
// caption seen, which is where Telegram puts the album caption.
type Group struct {
	ChatID   int64
	UserID   int64
	Username string
	Caption  string
	FileIDs  []string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Group)
}

type groupKey struct {
	chatID int64
	id     string
}

type bucket struct {
	group Group
	seen  map[string]struct{}
	timer *time.Timer
}

type Aggregator struct {
	debounce time.Duration
	onFlush  func(Group)

	mu      sync.Mutex
	buckets map[groupKey]*bucket
	closed  bool
}

func New(opts Options) *Aggregator {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Aggregator{
		debounce: opts.Debounce,
		onFlush:  opts.OnFlush,
		buckets:  make(map[groupKey]*bucket),
	}
}

// Add reports whether the item was accepted. Items without a media group id,
// duplicates, items past the album limit and items after Stop are dropped.
// Every accepted item pushes the flush back by one debounce period.
func (a *Aggregator) Add(item Item) bool {
	if item.MediaGroupID == "" || item.FileID == "" {
		return false
	}
	key := groupKey{chatID: item.ChatID, id: item.MediaGroupID}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}

	b := a.buckets[key]
	if b == nil {
		b = &bucket{
			group: Group{ChatID: item.ChatID, UserID: item.UserID, Username: item.Username},
			seen:  make(map[string]struct{}, maxGroupSize),
		}
		b.timer = time.AfterFunc(a.debounce, func() { a.flush(key, b) })
		a.buckets[key] = b
	} else {
		if _, dup := b.seen[item.FileID]; dup || len(b.group.FileIDs) >= maxGroupSize {
			return false
		}
		b.timer.Reset(a.debounce)
	}

	b.seen[item.FileID] = struct{}{}
	b.group.FileIDs = append(b.group.FileIDs, item.FileID)
	if item.Caption != "" {
		b.group.Caption = item.Caption
	}
	return true
}

func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buckets)
}

// Stop cancels every pending group without delivering it and makes further
// Adds no-ops. It returns the number of groups dropped.
func (a *Aggregator) Stop() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	dropped := len(a.buckets)
	for _, b := range a.buckets {
		b.timer.Stop()
	}
	clear(a.buckets)
	return dropped
}

func (a *Aggregator) flush(key groupKey, b *bucket) {
	a.mu.Lock()
	// A bucket dropped by Stop, or replaced after a race with Stop, is stale.
	if a.buckets[key] != b {
		a.mu.Unlock()
		return
	}
	delete(a.buckets, key)
	group := b.group
	a.mu.Unlock()

	if a.onFlush != nil {
		a.onFlush(group)
	}
}
