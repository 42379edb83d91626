// Package status tracks STATUS requests sent to other players and matches
// their RESULT replies. It is independent of the sync receiver.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rpitems/internal/item"
	"rpitems/internal/message"
)

const DefaultTimeout = 10 * time.Second

type Request struct {
	ID     string
	Target string
	SentAt time.Time
}

// Response is a RESULT matched to its request.
type Response struct {
	Request Request
	Result  message.Result
	Latency time.Duration
}

type Tracker struct {
	mu      sync.Mutex
	timeout time.Duration
	pending map[string]Request

	NewID func() string
}

func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		timeout: timeout,
		pending: make(map[string]Request),
	}
}

// Begin records a request to target and returns it with the STATUS message to
// send.
func (t *Tracker) Begin(target, sender string, now time.Time) (Request, string) {
	var id string
	if t.NewID != nil {
		id = t.NewID()
	} else {
		id = uuid.NewString()
	}
	req := Request{ID: id, Target: target, SentAt: now}

	t.mu.Lock()
	t.pending[id] = req
	t.mu.Unlock()

	return req, message.BuildStatusMessage(id, sender)
}

// Resolve matches RESULT fields against a pending request. Unknown or already
// expired request ids are ignored.
func (t *Tracker) Resolve(fields []string, now time.Time) (Response, bool) {
	result := message.DecodeResult(fields)

	t.mu.Lock()
	defer t.mu.Unlock()
	req, ok := t.pending[result.RequestID]
	if !ok {
		return Response{}, false
	}
	delete(t.pending, result.RequestID)
	if now.Sub(req.SentAt) > t.timeout {
		return Response{}, false
	}
	return Response{Request: req, Result: result, Latency: now.Sub(req.SentAt)}, true
}

// Expire forgets and returns requests older than the timeout, oldest first.
func (t *Tracker) Expire(now time.Time) []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []Request
	for id, req := range t.pending {
		if now.Sub(req.SentAt) > t.timeout {
			expired = append(expired, req)
			delete(t.pending, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].SentAt.Before(expired[j].SentAt) })
	return expired
}

func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Reply answers a STATUS request with the local synced collection state.
func Reply(req message.Status, sender string, meta item.Metadata) string {
	return message.BuildResultMessage(req.RequestID, sender, meta.ID, meta.Version, meta.Checksum)
}
