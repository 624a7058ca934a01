package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"holidaze/internal/events"
	"holidaze/internal/metrics"
	"holidaze/internal/models"
)

// DeadLetterKey is the Redis list holding events that exhausted their retries.
const DeadLetterKey = "holidaze:events:deadletter"

var ErrQueueFull = errors.New("event queue is full")

// Sink delivers one event to an external system.
type Sink interface {
	Deliver(ctx context.Context, event *events.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event *events.Event) error

func (f SinkFunc) Deliver(ctx context.Context, event *events.Event) error {
	return f(ctx, event)
}

// deadLetter is the JSON record pushed to DeadLetterKey.
type deadLetter struct {
	Event    events.Event `json:"event"`
	Attempts int          `json:"attempts"`
	Error    string       `json:"error"`
	FailedAt time.Time    `json:"failed_at"`
}

// EventForwarder copies bus events to a Sink from a buffered queue.
type EventForwarder struct {
	sink          Sink
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan events.Event
	deadLetterKey string
	logger        *zerolog.Logger

	// wait sleeps between attempts and reports false when ctx ends first.
	wait func(ctx context.Context, d time.Duration) bool

	inFlight sync.WaitGroup
}

// NewEventForwarder builds a forwarder. redisClient may be nil, in which case
// dead letters are only logged.
func NewEventForwarder(sink Sink, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *EventForwarder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventForwarder{
		sink:          sink,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan events.Event, models.WorkerQueueSize),
		deadLetterKey: DeadLetterKey,
		logger:        logger,
		wait:          sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Attach subscribes the forwarder to every event on the bus.
func (w *EventForwarder) Attach(bus *events.EventBus) {
	bus.Subscribe(events.AllEvents, func(ev *events.Event) error {
		return w.Enqueue(ev)
	})
}

// Enqueue never blocks. A full queue drops the event with ErrQueueFull.
func (w *EventForwarder) Enqueue(ev *events.Event) error {
	if ev == nil {
		return errors.New("event is nil")
	}
	w.inFlight.Add(1)
	select {
	case w.queue <- *ev:
		return nil
	default:
		w.inFlight.Done()
		w.logger.Warn().Str("event_id", ev.ID).Str("type", ev.Type).Msg("event queue full, event dropped")
		return ErrQueueFull
	}
}

// Pending is the number of queued events not yet picked up.
func (w *EventForwarder) Pending() int {
	return len(w.queue)
}

// Start delivers queued events until ctx is done.
func (w *EventForwarder) Start(ctx context.Context) {
	w.logger.Info().Msg("event forwarder started")
	defer w.logger.Info().Msg("event forwarder stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.queue:
			w.process(ctx, ev)
		}
	}
}

// Flush delivers everything already queued, then returns. Used before a CLI
// command exits.
func (w *EventForwarder) Flush(ctx context.Context) {
	for {
		select {
		case ev := <-w.queue:
			w.process(ctx, ev)
		default:
			return
		}
	}
}

// Wait blocks until every accepted event was delivered or dead-lettered.
func (w *EventForwarder) Wait() {
	w.inFlight.Wait()
}

func (w *EventForwarder) process(ctx context.Context, ev events.Event) {
	defer w.inFlight.Done()

	log := w.logger.With().Str("event_id", ev.ID).Str("type", ev.Type).Logger()
	var lastErr error

	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		err := w.sink.Deliver(ctx, &ev)
		if err == nil {
			metrics.IncEventDelivery("sent")
			log.Debug().Int("attempt", attempt).Msg("event delivered")
			return
		}
		lastErr = err

		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		metrics.IncEventDelivery("retry")
		delay := w.retryPolicy.NextDelay(attempt)
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", delay).Msg("event delivery failed")
		if !w.wait(ctx, delay) {
			lastErr = fmt.Errorf("%w (stopped after attempt %d)", ctx.Err(), attempt)
			break
		}
	}

	w.pushDeadLetter(ctx, ev, lastErr)
}

func (w *EventForwarder) pushDeadLetter(ctx context.Context, ev events.Event, cause error) {
	metrics.IncEventDelivery("dead_letter")
	log := w.logger.With().Str("event_id", ev.ID).Str("type", ev.Type).Logger()
	log.Error().Err(cause).Msg("event dead-lettered")

	if w.redis == nil {
		return
	}
	rec := deadLetter{Event: ev, Attempts: w.retryPolicy.MaxRetries, FailedAt: time.Now()}
	if cause != nil {
		rec.Error = cause.Error()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Msg("encode deadletter")
		return
	}
	// The caller's ctx may already be done; the push gets its own deadline.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := w.redis.LPush(pushCtx, w.deadLetterKey, data).Err(); err != nil {
		log.Error().Err(err).Msg("deadletter push failed")
	}
}

// DeadLetters returns the dead-lettered events, newest first.
func (w *EventForwarder) DeadLetters(ctx context.Context) ([]events.Event, error) {
	if w.redis == nil {
		return nil, nil
	}
	raw, err := w.redis.LRange(ctx, w.deadLetterKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}
	out := make([]events.Event, 0, len(raw))
	for _, item := range raw {
		var rec deadLetter
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			w.logger.Warn().Err(err).Msg("skipping undecodable dead letter")
			continue
		}
		out = append(out, rec.Event)
	}
	return out, nil
}
