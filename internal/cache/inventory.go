package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TrackKeyPrefix     = "track:app:%s"
	TrackLostKeyPrefix = "track:lost:%s"
	CitizenKeyPrefix   = "citizen:%s"
)

const (
	DefaultTrackingTTL = time.Minute
	CitizenTTL         = 10 * time.Minute
)

// TrackKey caches the merged public lookup for a number.
func TrackKey(number string) string {
	return fmt.Sprintf(TrackKeyPrefix, number)
}

// TrackLostKey caches the waiting-card lookup.
func TrackLostKey(number string) string {
	return fmt.Sprintf(TrackLostKeyPrefix, number)
}

func CitizenKey(idNumber string) string {
	return fmt.Sprintf(CitizenKeyPrefix, idNumber)
}

// InvalidateTracking drops every cached view of a tracked number.
func (c *Cache) InvalidateTracking(ctx context.Context, number string) {
	c.Invalidate(ctx, TrackKey(number), TrackLostKey(number))
}

func (c *Cache) InvalidateCitizen(ctx context.Context, idNumber string) {
	c.Invalidate(ctx, CitizenKey(idNumber))
}
