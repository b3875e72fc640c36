// Package stats emits competition records to the external stats
// collaborator. Writes are fire-and-forget: the dispatcher never waits
// on the collector and a full buffer drops records rather than blocking.
package stats

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Record is the payload emitted after every competition.
type Record struct {
	RequestID  string                `json:"request_id"`
	Candidates []string              `json:"candidates"`
	Scores     []*models.ScoreVector `json:"scores"`
	WinnerID   string                `json:"winner_id"`
	LatencyMs  int64                 `json:"latency_ms"`
	Timestamp  time.Time             `json:"timestamp"`
}

// Collector receives competition records.
type Collector interface {
	RecordCompetition(rec Record)
}

// Nop discards every record.
type Nop struct{}

// RecordCompetition discards the record.
func (Nop) RecordCompetition(Record) {}

// HTTPCollector posts records as JSON to a stats endpoint from a
// background drainer. No response is expected or read beyond status.
type HTTPCollector struct {
	endpoint string
	client   *http.Client

	ch      chan Record
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewHTTPCollector creates a collector posting to endpoint and starts
// its background drainer.
func NewHTTPCollector(endpoint string, bufferSize int) *HTTPCollector {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	c := &HTTPCollector{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		ch:       make(chan Record, bufferSize),
		done:     make(chan struct{}),
	}
	go c.drain()
	return c
}

// RecordCompetition enqueues a record without blocking. Records are
// dropped when the buffer is full; drops are counted, not fatal.
func (c *HTTPCollector) RecordCompetition(rec Record) {
	select {
	case c.ch <- rec:
	default:
		count := c.dropped.Add(1)
		if count%10 == 1 {
			log.Printf("[stats] WARNING: buffer full, dropped record (total dropped: %d)", count)
		}
	}
}

// Dropped returns the total number of dropped records.
func (c *HTTPCollector) Dropped() uint64 {
	return c.dropped.Load()
}

// Close stops accepting records and waits for the drainer to finish.
func (c *HTTPCollector) Close() {
	c.closeOnce.Do(func() {
		close(c.ch)
		<-c.done
	})
}

func (c *HTTPCollector) drain() {
	defer close(c.done)
	for rec := range c.ch {
		c.post(rec)
	}
}

func (c *HTTPCollector) post(rec Record) {
	body, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[stats] marshal record: %v", err)
		return
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[stats] post record: %v", err)
		return
	}
	resp.Body.Close()
}
