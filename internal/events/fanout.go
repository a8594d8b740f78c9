// README: Publishes ride events to several publishers.
package events

import (
	"context"
	"errors"

	"ridepool/internal/modules/ride"
)

// Fanout delivers each event to every publisher. One failing sink does not
// stop the others.
type Fanout []ride.Publisher

func (f Fanout) Publish(ctx context.Context, e ride.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
