package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestHTTPCollectorPostsRecords(t *testing.T) {
	var mu sync.Mutex
	var received []Record

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode record: %v", err)
		}
		mu.Lock()
		received = append(received, rec)
		mu.Unlock()
	}))
	defer srv.Close()

	c := NewHTTPCollector(srv.URL, 8)
	c.RecordCompetition(Record{
		RequestID:  "req-1",
		Candidates: []string{"a", "b"},
		WinnerID:   "a",
		LatencyMs:  120,
		Timestamp:  time.Now(),
	})
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 record, got %d", len(received))
	}
	if received[0].WinnerID != "a" {
		t.Errorf("expected winner a, got %s", received[0].WinnerID)
	}
}

func TestHTTPCollectorDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()

	c := NewHTTPCollector(srv.URL, 1)

	// One in flight, one buffered, the rest dropped.
	for i := 0; i < 10; i++ {
		c.RecordCompetition(Record{RequestID: "req"})
	}

	if c.Dropped() == 0 {
		t.Error("expected dropped records with a full buffer")
	}
	close(blocked)
	c.Close()
}

func TestNopCollector(t *testing.T) {
	// Must not panic or block.
	Nop{}.RecordCompetition(Record{RequestID: "req-1"})
}
