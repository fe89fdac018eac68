package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quarrydata/quarry"
)

const eventChannel = "quarry:events"

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// Publish emits a catalog event to every subscriber.
func (s *SignalService) Publish(ctx context.Context, event quarry.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
}

// Notify publishes without failing the caller; mutation handlers should
// not surface a broken event bus to the client.
func (s *SignalService) Notify(ctx context.Context, kind, action, id string) {
	err := s.Publish(ctx, quarry.Event{Kind: kind, Action: action, ID: id})
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to publish event",
			slog.String("error", err.Error()),
			slog.String("module", "signal"),
		)
	}
}

// Subscribe streams events to the output channel until ctx is done.
// Kind filters are updated through the input channel; an empty filter set
// forwards everything.
func (s *SignalService) Subscribe(ctx context.Context, input <-chan []string, output chan<- quarry.Event) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	var kinds []string
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case kinds = <-input:
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event quarry.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			if !kindMatches(kinds, event.Kind) {
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func kindMatches(kinds []string, kind string) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind || strings.HasPrefix(kind, k) {
			return true
		}
	}
	return false
}
