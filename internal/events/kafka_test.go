package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"ridepool/internal/modules/ride"
	"ridepool/internal/types"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublish_KeysByRide(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}
	actor := types.ID("p-1")
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	err := p.Publish(context.Background(), ride.Event{
		RideID:     "ride-9",
		Kind:       ride.EventJoined,
		FromStatus: ride.StatusPending,
		ToStatus:   ride.StatusPending,
		ActorType:  "passenger",
		ActorID:    &actor,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "ride-9" {
		t.Errorf("key = %q", msg.Key)
	}
	var got Message
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != "joined" || got.ActorID != "p-1" || !got.OccurredAt.Equal(at) {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestPublish_OmitsMissingActor(t *testing.T) {
	msg, err := encode(ride.Event{RideID: "r", Kind: ride.EventStatus, ToStatus: ride.StatusBlocked})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(msg.Value, &raw)
	if _, ok := raw["actor_id"]; ok {
		t.Errorf("actor_id should be omitted: %s", msg.Value)
	}
}

func TestPublish_PropagatesWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}}
	if err := p.Publish(context.Background(), ride.Event{RideID: "r"}); !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
}
