package logstream

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRecordAndRecent(t *testing.T) {
	feed := NewFeed(10)

	feed.Record("default", "info", "first", 1)
	feed.Record("default", "warn", "second", 2)
	feed.Record("outlet", "info", "other scope", 3)

	entries := feed.Recent("default")
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "warn", entries[1].Level)

	require.Len(t, feed.Recent("outlet"), 1)
	assert.Empty(t, feed.Recent("unknown"))
}

func TestFeedEvictsOldestBeyondBound(t *testing.T) {
	feed := NewFeed(3)

	for i := 0; i < 5; i++ {
		feed.Record("default", "info", fmt.Sprintf("entry %d", i), int64(i))
	}

	entries := feed.Recent("default")
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 2", entries[0].Message)
	assert.Equal(t, "entry 4", entries[2].Message)
}

func TestFeedRecentReturnsACopy(t *testing.T) {
	feed := NewFeed(10)
	feed.Record("default", "info", "original", 1)

	entries := feed.Recent("default")
	entries[0] = nil

	again := feed.Recent("default")
	require.Len(t, again, 1)
	require.NotNil(t, again[0])
	assert.Equal(t, "original", again[0].Message)
}

func TestHookRecordsScopedEntries(t *testing.T) {
	feed := NewFeed(10)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewHook(feed))

	logger.WithField("scope", "default").Info("batch committed")
	logger.WithField("scope", "default").Warn("fetch failed")
	logger.WithField("scope", "outlet").Info("run finished")

	entries := feed.Recent("default")
	require.Len(t, entries, 2)
	assert.Equal(t, "batch committed", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "fetch failed", entries[1].Message)
	assert.Equal(t, "warning", entries[1].Level)
	assert.NotZero(t, entries[0].Timestamp)

	require.Len(t, feed.Recent("outlet"), 1)
}

func TestHookSkipsUnscopedEntries(t *testing.T) {
	feed := NewFeed(10)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.AddHook(NewHook(feed))

	logger.Info("service starting")
	logger.WithField("scope", 42).Info("non-string scope")
	logger.WithField("scope", "").Info("empty scope")

	assert.Empty(t, feed.Recent(""))
	assert.Empty(t, feed.Recent("default"))
}
