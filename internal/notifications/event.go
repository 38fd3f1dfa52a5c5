// Package notifications publishes workflow status changes and relays them to
// connected WebSocket clients.
package notifications

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
)

// EventStatusChanged is the only event type emitted today.
const EventStatusChanged = "status_changed"

// StatusEvent describes one workflow transition.
type StatusEvent struct {
	Type      string    `json:"type"`
	Workflow  string    `json:"workflow"`
	ID        uint      `json:"id"`
	Number    string    `json:"number"`
	Status    string    `json:"status"`
	OfficerID uint      `json:"officer_id"`
	At        time.Time `json:"at"`
}

// Publisher delivers status events to some sink.
type Publisher interface {
	PublishStatus(ctx context.Context, ev StatusEvent) error
}

// Fanout publishes to every sink and reports all failures together.
type Fanout []Publisher

func (f Fanout) PublishStatus(ctx context.Context, ev StatusEvent) error {
	var result *multierror.Error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishStatus(ctx, ev); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Discard drops every event.
type Discard struct{}

func (Discard) PublishStatus(context.Context, StatusEvent) error { return nil }
