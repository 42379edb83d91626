package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"rpitems/internal/catalog"
	"rpitems/internal/channel"
	"rpitems/internal/checksum"
	"rpitems/internal/config"
	"rpitems/internal/dbsync"
	"rpitems/internal/item"
	"rpitems/internal/message"
	"rpitems/internal/status"
	"rpitems/internal/store"
)

type mockStore struct {
	received map[string]*store.Received
	latest   string
}

func newMockStore() *mockStore {
	return &mockStore{received: make(map[string]*store.Received)}
}

func (m *mockStore) Close(ctx context.Context) error        { return nil }
func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockStore) SaveWorkspace(ctx context.Context, ws *catalog.Workspace) error { return nil }

func (m *mockStore) LoadWorkspace(ctx context.Context) (*catalog.Workspace, error) {
	return catalog.NewWorkspace(), nil
}

func (m *mockStore) SaveReceived(ctx context.Context, sender string, c *item.Collection) error {
	m.received[c.Metadata.ID] = &store.Received{Sender: sender, Collection: c}
	m.latest = c.Metadata.ID
	return nil
}

func (m *mockStore) LoadReceived(ctx context.Context, databaseID string) (*store.Received, error) {
	if databaseID == "" {
		databaseID = m.latest
	}
	return m.received[databaseID], nil
}

func (m *mockStore) ListReceived(ctx context.Context) ([]store.ReceivedSummary, error) {
	return nil, nil
}

func (m *mockStore) GetImportRecords(ctx context.Context) (map[string]store.ImportRecord, error) {
	return nil, nil
}

func (m *mockStore) RecordImport(ctx context.Context, rec store.ImportRecord) error { return nil }

func (m *mockStore) RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error) {
	return 0, nil
}

func testCollection() *item.Collection {
	c := item.NewCollection()
	c.Items[1] = item.Item{GUID: "g-letter", Name: "Letter", Content: "Dear Sir", ContentTemplate: "Dear {custom-text}"}
	c.Items[2] = item.Item{GUID: "g-potion", Name: "Potion", InitialCounter: 3}
	c.Metadata = item.Metadata{ID: "db-1", Name: "Session", Version: 1700000000}
	c.Metadata.Checksum = checksum.Collection(c)
	return c
}

func testConfig() *config.ProjectConfig {
	cfg := &config.ProjectConfig{Project: "test", Version: 1, Player: "Alice"}
	cfg.Transport.Channel = "rpitems"
	cfg.Transport.MaxMessageBytes = channel.DefaultMaxMessageBytes
	return cfg
}

func next(t *testing.T, msgs <-chan string) string {
	t.Helper()
	select {
	case msg := <-msgs:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("expected a published message")
		return ""
	}
}

func expectSilence(t *testing.T, msgs <-chan string) {
	t.Helper()
	select {
	case msg := <-msgs:
		t.Fatalf("expected no message, got %q", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestListener(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := newMockStore()
	lb := channel.NewLoopback(channel.DefaultMaxMessageBytes)
	probe, err := lb.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := newListener(testConfig(), db, lb)
	router := l.routes(ctx)

	t.Run("status before any sync", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildStatusMessage("req-0", "Bob")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, fields := message.Parse(next(t, probe))
		result := message.DecodeResult(fields)
		if result.RequestID != "req-0" || result.Sender != "Alice" || result.DatabaseID != "" {
			t.Fatalf("unexpected result %+v", result)
		}
	})

	t.Run("sync transfer is persisted", func(t *testing.T) {
		frames, err := dbsync.BuildSyncFrames(testCollection(), 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, frame := range frames {
			if _, err := router.Dispatch(frame); err != nil {
				t.Fatalf("unexpected error on %q: %v", frame, err)
			}
		}
		got := db.received["db-1"]
		if got == nil {
			t.Fatalf("expected received collection to be saved")
		}
		if got.Collection.Len() != 2 || got.Sender != "rpitems" {
			t.Fatalf("unexpected received collection %+v", got)
		}
	})

	t.Run("status reports the received collection", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildStatusMessage("req-1", "Bob")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, fields := message.Parse(next(t, probe))
		result := message.DecodeResult(fields)
		want := testCollection().Metadata
		if result.DatabaseID != want.ID || result.Version != want.Version || result.Checksum != want.Checksum {
			t.Fatalf("expected %+v, got %+v", want, result)
		}
	})

	t.Run("own status is ignored", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildStatusMessage("req-2", "Alice")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expectSilence(t, probe)
	})

	t.Run("give of a known item is accepted", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildGiveMessage("Alice", "g-letter", "for you", "Bob", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		typ, fields := message.Parse(next(t, probe))
		if typ != message.TypeAccept {
			t.Fatalf("expected ACCEPT, got %s", typ)
		}
		if accept := message.DecodeAccept(fields); accept.Sender != "Alice" || accept.GUID != "g-letter" {
			t.Fatalf("unexpected accept %+v", accept)
		}
	})

	t.Run("trade of an unknown item is rejected", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildTradeMessage("Alice", "g-missing", "", "", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		typ, fields := message.Parse(next(t, probe))
		if typ != message.TypeReject {
			t.Fatalf("expected REJECT, got %s", typ)
		}
		if reject := message.DecodeReject(fields); reject.GUID != "g-missing" || reject.Reason == "" {
			t.Fatalf("unexpected reject %+v", reject)
		}
	})

	t.Run("give to another player is ignored", func(t *testing.T) {
		if _, err := router.Dispatch(message.BuildGiveMessage("Bob", "g-letter", "", "", 0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expectSilence(t, probe)
	})

	t.Run("show of an unknown item fails", func(t *testing.T) {
		_, err := router.Dispatch(message.BuildShowMessage("Alice", "g-missing", "", 0))
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListenerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	db := newMockStore()
	lb := channel.NewLoopback(channel.DefaultMaxMessageBytes)
	cfg := testConfig()
	cfg.Receiver.StaleAfter = time.Hour
	l := newListener(cfg, db, lb)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	// Publish until the listener has subscribed and answered.
	probe, err := lb.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deadline := time.After(2 * time.Second)
	answered := false
	for !answered {
		if err := lb.Publish(ctx, message.BuildStatusMessage("req-run", "Bob")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wait := time.After(20 * time.Millisecond)
	drain:
		for {
			select {
			case msg := <-probe:
				if typ, _ := message.Parse(msg); typ == message.TypeResult {
					answered = true
					break drain
				}
			case <-wait:
				break drain
			case <-deadline:
				t.Fatalf("listener never answered")
			}
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("listener did not stop")
	}
}

func TestRequestStatus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	lb := channel.NewLoopback(channel.DefaultMaxMessageBytes)
	peer, err := lb.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta := testCollection().Metadata
	go func() {
		for raw := range peer {
			typ, fields := message.Parse(raw)
			if typ != message.TypeStatus {
				continue
			}
			req := message.DecodeStatus(fields)
			_ = lb.Publish(ctx, message.BuildResultMessage(req.RequestID, "Carol", "other", 1, "00000000"))
			_ = lb.Publish(ctx, status.Reply(req, "Bob", meta))
		}
	}()

	tracker := status.NewTracker(time.Second)
	tracker.NewID = func() string { return "req-42" }

	resp, err := requestStatus(ctx, lb, tracker, "Bob", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Request.ID != "req-42" || resp.Result.Sender != "Bob" || resp.Result.Checksum != meta.Checksum {
		t.Fatalf("unexpected response %+v", resp)
	}
	if tracker.Pending() != 0 {
		t.Fatalf("expected no pending requests, got %d", tracker.Pending())
	}
}

func TestRequestStatus_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	lb := channel.NewLoopback(channel.DefaultMaxMessageBytes)
	_, err := requestStatus(ctx, lb, status.NewTracker(time.Second), "", "Alice")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
