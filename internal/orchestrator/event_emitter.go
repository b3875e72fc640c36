package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// emitterDrainWait is how long Emit waits for a slow subscriber before
// dropping an event.
const emitterDrainWait = 100 * time.Millisecond

// EventEmitter fans run events out to a single subscriber channel.
// Emission never blocks the scheduler for longer than the drain wait.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates an EventEmitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event to the events channel. If the channel is full it
// waits briefly for the subscriber to drain, then drops the event.
func (e *EventEmitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
		return
	case <-time.After(emitterDrainWait):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[orchestrator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events for subscribers.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel. Call only after the run finishes.
func (e *EventEmitter) Close() {
	close(e.events)
}
