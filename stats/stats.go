package stats

import (
	"context"
	"fmt"
	"time"

	"go-stormwatch/types"
)

// Counters is the atomic-increment slice of the store the recorder needs.
type Counters interface {
	IncrementCounter(ctx context.Context, path string) error
}

// Recorder maintains the yearly report statistics: total reports per
// phenomenon, and the same broken down by calendar month.
type Recorder struct {
	counters Counters
}

func NewRecorder(c Counters) *Recorder {
	return &Recorder{counters: c}
}

// RecordNotification bumps the year and month counters for one official
// notification.
func (r *Recorder) RecordNotification(ctx context.Context, n types.Notification) error {
	t := time.UnixMilli(n.Timestamp).UTC()
	year := t.Year()
	month := t.Month().String()

	yearPath := fmt.Sprintf("statisticsPerYear/%d/sumOfReports/%s", year, n.Phenomenon)
	if err := r.counters.IncrementCounter(ctx, yearPath); err != nil {
		return fmt.Errorf("increment yearly report count: %w", err)
	}

	monthPath := fmt.Sprintf("statisticsPerYear/%d/sumPerMonth/%s/%s", year, month, n.Phenomenon)
	if err := r.counters.IncrementCounter(ctx, monthPath); err != nil {
		return fmt.Errorf("increment monthly report count: %w", err)
	}
	return nil
}
