// Package service implements the application workflows on top of the repositories.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"idportal/internal/middleware"
	"idportal/internal/observability"
	"idportal/internal/repository"
)

// IdentifierClass is one numbering space: a prefix, a zero-padded width, the
// counter it draws from and the unique column its values land in.
type IdentifierClass struct {
	Prefix  string
	Digits  int
	Counter string
	Table   string
	Column  string
}

var (
	ClassApplication = IdentifierClass{Prefix: "APP", Digits: 6, Counter: "application",
		Table: "applications", Column: "application_number"}
	ClassIDNumber = IdentifierClass{Prefix: "ID", Digits: 8, Counter: "id_number",
		Table: "applications", Column: "generated_id_number"}
	ClassWaitingCard = IdentifierClass{Prefix: "WAIT", Digits: 6, Counter: "waiting_card",
		Table: "lost_id_applications", Column: "waiting_card_number"}
)

// maxIdentifierSkips bounds how many occupied numbers one allocation steps over.
const maxIdentifierSkips = 10_000

// Format renders PREFIX + year + zero-padded sequence.
func (c IdentifierClass) Format(year int, seq int64) string {
	return fmt.Sprintf("%s%d%0*d", c.Prefix, year, c.Digits, seq)
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// IdentifierGenerator hands out identifiers from per-(class, year) counters.
type IdentifierGenerator struct {
	now Clock
}

// NewIdentifierGenerator uses now for the year component; nil means time.Now.
func NewIdentifierGenerator(now Clock) *IdentifierGenerator {
	if now == nil {
		now = defaultClock
	}
	return &IdentifierGenerator{now: now}
}

// Next allocates the next free identifier of class. Numbers already present
// in the class's column, e.g. rows imported from before the counters existed,
// are stepped over. Pass the sequence repository of the transaction that
// inserts the row so a rollback also rolls back the counter.
func (g *IdentifierGenerator) Next(ctx context.Context, seq repository.SequenceRepository, class IdentifierClass) (string, error) {
	year := g.now().Year()
	for skipped := 0; skipped <= maxIdentifierSkips; skipped++ {
		n, err := seq.Next(ctx, class.Counter, year)
		if err != nil {
			return "", err
		}
		id := class.Format(year, n)
		taken, err := seq.Taken(ctx, class.Table, class.Column, id)
		if err != nil {
			return "", err
		}
		if !taken {
			if skipped > 0 {
				middleware.Logger.WarnContext(ctx, "skipped identifiers already in use",
					slog.String("counter", class.Counter), slog.Int("skipped", skipped), slog.String("issued", id))
			}
			observability.IdentifierAllocations.WithLabelValues(class.Counter).Inc()
			return id, nil
		}
	}
	return "", fmt.Errorf("%s/%d: more than %d consecutive numbers already in use", class.Counter, year, maxIdentifierSkips)
}

// Now exposes the generator's clock so workflows timestamp consistently.
func (g *IdentifierGenerator) Now() time.Time {
	return g.now()
}
