// README: Pushes ride changes to the ride's FCM topic so joined passengers hear about them.
package events

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

type messageSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type PushPublisher struct {
	sender messageSender
}

func NewPushPublisher(client *messaging.Client) *PushPublisher {
	return &PushPublisher{sender: client}
}

// RideTopic is the FCM topic clients subscribe to after joining a ride.
func RideTopic(id types.ID) string {
	return "ride-" + string(id)
}

// Publish sends a notification for changes a passenger needs to act on.
// Other events are ignored.
func (p *PushPublisher) Publish(ctx context.Context, e ride.Event) error {
	msg, ok := pushMessage(e)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("push %s event to %s: %w", e.Kind, msg.Topic, err)
	}
	return nil
}

func pushMessage(e ride.Event) (*messaging.Message, bool) {
	var title, body string
	switch {
	case e.Kind == ride.EventRescheduled:
		title, body = "Ride rescheduled", "Your driver changed the departure time."
	case e.Kind != ride.EventStatus:
		return nil, false
	case e.ToStatus == ride.StatusStarted:
		title, body = "Ride started", "Your driver is on the way."
	case e.ToStatus == ride.StatusCompleted:
		title, body = "Ride completed", "Thanks for sharing the ride."
	case e.ToStatus == ride.StatusCancelled:
		title, body = "Ride cancelled", "Your driver cancelled this ride."
	case e.ToStatus == ride.StatusBlocked:
		title, body = "Ride unavailable", "This ride is no longer available."
	default:
		return nil, false
	}
	return &messaging.Message{
		Topic: RideTopic(e.RideID),
		Data: map[string]string{
			"type":    "ride_" + string(e.Kind),
			"ride_id": string(e.RideID),
			"status":  string(e.ToStatus),
		},
		Notification: &messaging.Notification{Title: title, Body: body},
		Android:      &messaging.AndroidConfig{Priority: "high"},
	}, true
}
