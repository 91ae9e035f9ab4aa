package service

import (
	"context"

	"github.com/trackeasy/railtick/internal/model"
)

// External collaborators consumed by the pipeline. Geolocation
// acquisition and notification delivery live outside this core; only
// the operations the services need are declared here.

// LocationProvider yields the device's current coordinates. A failed or
// denied fix returns an error, which the station catalog translates to
// ErrLocationUnavailable.
type LocationProvider interface {
	CurrentCoordinates(ctx context.Context) (lat, lon float64, err error)
}

// NotificationScheduler schedules arrival alerts after a purchase.
// Failures are logged, never propagated: a missed notification must not
// fail a completed purchase.
type NotificationScheduler interface {
	ScheduleArrival(ctx context.Context, arrivals []model.TicketArrival) error
}

// NopNotificationScheduler discards all scheduling requests.
type NopNotificationScheduler struct{}

func (NopNotificationScheduler) ScheduleArrival(context.Context, []model.TicketArrival) error {
	return nil
}
