// Package logstream keeps a bounded in-memory feed of recent log
// entries per sync scope, so operators can follow a run through the
// API without shipping logs anywhere.
package logstream

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/catsync/catsync/model"
)

// DefaultFeedSize bounds how many entries are retained per scope.
const DefaultFeedSize = 200

// Feed retains the most recent log entries for each scope.
type Feed struct {
	mu      sync.Mutex
	max     int
	byScope map[string][]*model.LogEntry
}

// NewFeed creates a Feed retaining up to max entries per scope.
func NewFeed(max int) *Feed {
	if max <= 0 {
		max = DefaultFeedSize
	}
	return &Feed{
		max:     max,
		byScope: make(map[string][]*model.LogEntry),
	}
}

// Record appends one entry to a scope's feed, evicting the oldest
// entry once the bound is reached.
func (f *Feed) Record(scope, level, message string, timestamp int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := append(f.byScope[scope], &model.LogEntry{
		Timestamp: timestamp,
		Level:     level,
		Message:   message,
	})
	if len(entries) > f.max {
		entries = entries[len(entries)-f.max:]
	}
	f.byScope[scope] = entries
}

// Recent returns a scope's retained entries in chronological order.
func (f *Feed) Recent(scope string) []*model.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.byScope[scope]
	out := make([]*model.LogEntry, len(entries))
	copy(out, entries)
	return out
}

// Hook feeds every logrus entry carrying a scope field into a Feed.
type Hook struct {
	feed *Feed
}

// NewHook creates a logrus hook writing into feed.
func NewHook(feed *Feed) *Hook {
	return &Hook{feed: feed}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook. Entries without a scope field are not
// part of any run's feed and are skipped.
func (h *Hook) Fire(entry *logrus.Entry) error {
	scope, ok := entry.Data["scope"].(string)
	if !ok || scope == "" {
		return nil
	}

	h.feed.Record(scope, entry.Level.String(), entry.Message, entry.Time.UnixNano()/1000000)
	return nil
}
