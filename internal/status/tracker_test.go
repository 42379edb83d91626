package status

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"rpitems/internal/item"
	"rpitems/internal/message"
)

func TestTracker(t *testing.T) {
	start := time.Unix(1700000000, 0)

	t.Run("request ids are uuids", func(t *testing.T) {
		tr := NewTracker(time.Second)
		req, msg := tr.Begin("Bob", "Alice", start)
		if _, err := uuid.Parse(req.ID); err != nil {
			t.Fatalf("expected uuid request id, got %q", req.ID)
		}
		typ, fields := message.Parse(msg)
		if typ != message.TypeStatus {
			t.Fatalf("expected STATUS, got %s", typ)
		}
		status := message.DecodeStatus(fields)
		if status.RequestID != req.ID || status.Sender != "Alice" {
			t.Fatalf("unexpected status: %#v", status)
		}
	})

	t.Run("reply resolves the request", func(t *testing.T) {
		tr := NewTracker(time.Second)
		_, msg := tr.Begin("Bob", "Alice", start)
		_, fields := message.Parse(msg)

		meta := item.Metadata{ID: "db-1", Version: 42, Checksum: "0badf00d"}
		typ, result := message.Parse(Reply(message.DecodeStatus(fields), "Bob", meta))
		if typ != message.TypeResult {
			t.Fatalf("expected RESULT, got %s", typ)
		}
		resp, ok := tr.Resolve(result, start.Add(200*time.Millisecond))
		if !ok {
			t.Fatalf("expected result to resolve")
		}
		if resp.Request.Target != "Bob" || resp.Result.Checksum != "0badf00d" || resp.Result.Version != 42 {
			t.Fatalf("unexpected response: %#v", resp)
		}
		if resp.Latency != 200*time.Millisecond {
			t.Fatalf("unexpected latency %s", resp.Latency)
		}
		if tr.Pending() != 0 {
			t.Fatalf("expected request to be consumed")
		}
		if _, ok := tr.Resolve(result, start); ok {
			t.Fatalf("expected duplicate result to be ignored")
		}
	})

	t.Run("late result is ignored", func(t *testing.T) {
		tr := NewTracker(time.Second)
		req, _ := tr.Begin("Bob", "Alice", start)
		_, result := message.Parse(message.BuildResultMessage(req.ID, "Bob", "db", 1, "x"))
		if _, ok := tr.Resolve(result, start.Add(2*time.Second)); ok {
			t.Fatalf("expected late result to be ignored")
		}
	})

	t.Run("custom id source", func(t *testing.T) {
		tr := NewTracker(time.Second)
		calls := 0
		tr.NewID = func() string {
			calls++
			return "req-7"
		}
		req, msg := tr.Begin("Bob", "Alice", start)
		if req.ID != "req-7" || calls != 1 {
			t.Fatalf("expected id from NewID once, got %q after %d calls", req.ID, calls)
		}
		if msg != "STATUS^req-7^Alice" {
			t.Fatalf("unexpected status message %q", msg)
		}
	})

	t.Run("expire", func(t *testing.T) {
		tr := NewTracker(time.Second)
		ids := []string{"b", "a", "c"}
		n := 0
		tr.NewID = func() string {
			id := ids[n]
			n++
			return id
		}
		tr.Begin("Bob", "Alice", start)
		tr.Begin("Carol", "Alice", start.Add(-time.Second))
		tr.Begin("Dan", "Alice", start.Add(5*time.Second))

		expired := tr.Expire(start.Add(1500 * time.Millisecond))
		if len(expired) != 2 || expired[0].Target != "Carol" || expired[1].Target != "Bob" {
			t.Fatalf("unexpected expired requests: %#v", expired)
		}
		if tr.Pending() != 1 {
			t.Fatalf("expected one pending request, got %d", tr.Pending())
		}
	})
}
