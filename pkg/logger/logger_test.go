package logger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
)

type recordingTracker struct {
	mu   sync.Mutex
	tags []map[string]string
	errs []error
}

func (r *recordingTracker) CaptureError(_ context.Context, err error, tags map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
	return nil
}

func (r *recordingTracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}

func (r *recordingTracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}

func (r *recordingTracker) Flush(context.Context) error { return nil }

func TestLogger_ErrorIsTrackedWithComponent(t *testing.T) {
	tracker := &recordingTracker{}
	log := Nop()
	log.errorTracker = tracker

	log.With("worker", "news_ingestion").Error("Feed fetch failed", "feed", "https://example.com/rss")

	require.Len(t, tracker.errs, 1)
	assert.Equal(t, "news_ingestion", tracker.tags[0]["component"])
	assert.Contains(t, tracker.errs[0].Error(), "Feed fetch failed")
}

func TestLogger_NoTrackerIsSafe(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.Error("plain message")
		log.Errorf("formatted %d", 1)
		log.ErrorWithContext(context.Background(), errors.ErrInternal, nil)
	})
}
