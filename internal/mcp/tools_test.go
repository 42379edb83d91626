package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"rpitems/internal/catalog"
	"rpitems/internal/config"
	"rpitems/internal/dbsync"
	"rpitems/internal/item"
	"rpitems/internal/message"
	"rpitems/internal/store"
)

type mockStore struct {
	workspace *catalog.Workspace
	received  *store.Received
	saveCalls int
	loadErr   error
}

func (m *mockStore) Close(ctx context.Context) error        { return nil }
func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockStore) SaveWorkspace(ctx context.Context, ws *catalog.Workspace) error {
	m.saveCalls++
	m.workspace = ws
	return nil
}

func (m *mockStore) LoadWorkspace(ctx context.Context) (*catalog.Workspace, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.workspace == nil {
		return catalog.NewWorkspace(), nil
	}
	return m.workspace, nil
}

func (m *mockStore) SaveReceived(ctx context.Context, sender string, c *item.Collection) error {
	m.received = &store.Received{Sender: sender, Collection: c}
	return nil
}

func (m *mockStore) LoadReceived(ctx context.Context, databaseID string) (*store.Received, error) {
	if m.received == nil {
		return nil, nil
	}
	if databaseID != "" && databaseID != m.received.Collection.Metadata.ID {
		return nil, nil
	}
	return m.received, nil
}

func (m *mockStore) ListReceived(ctx context.Context) ([]store.ReceivedSummary, error) {
	return nil, nil
}

func (m *mockStore) GetImportRecords(ctx context.Context) (map[string]store.ImportRecord, error) {
	return map[string]store.ImportRecord{}, nil
}

func (m *mockStore) RecordImport(ctx context.Context, rec store.ImportRecord) error {
	return nil
}

func (m *mockStore) RemoveStaleImports(ctx context.Context, currentFiles []string) (int64, error) {
	return 0, nil
}

func testServer(db store.Store) *Server {
	cfg := &config.ProjectConfig{Project: "campaign", Player: "Gm"}
	cfg.Transport.ChunkSize = 100
	s := NewServer(cfg, db, "test")
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestAuthoringTools(t *testing.T) {
	ctx := context.Background()
	db := &mockStore{}
	server := testServer(db)

	_, added, err := server.handleAddItem(ctx, nil, AddItemInput{Name: "Letter", Content: "Dear Sir"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added.ID != 1 || added.GUID == "" || db.saveCalls != 1 {
		t.Fatalf("unexpected add output: %+v (saves %d)", added, db.saveCalls)
	}

	_, list, err := server.handleListItems(ctx, nil, ListItemsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Name != "Letter" || !list.Dirty {
		t.Fatalf("unexpected list output: %+v", list)
	}

	_, byGUID, err := server.handleGetItem(ctx, nil, GetItemInput{GUID: added.GUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byGUID.ID != 1 || byGUID.Content != "Dear Sir" {
		t.Fatalf("unexpected item output: %+v", byGUID)
	}

	_, committed, err := server.handleCommit(ctx, nil, CommitInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if committed.Metadata.Name != "campaign" || committed.Metadata.Version != 1700000000 || committed.Items != 1 {
		t.Fatalf("unexpected commit output: %+v", committed)
	}

	_, frames, err := server.handleBuildSyncFrames(ctx, nil, BuildSyncFramesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	received, err := replay(frames.Frames)
	if err != nil {
		t.Fatalf("replaying frames: %v", err)
	}
	if received.Metadata.Checksum != committed.Metadata.Checksum {
		t.Fatalf("expected checksum %s, got %s", committed.Metadata.Checksum, received.Metadata.Checksum)
	}
}

func replay(frames []string) (*item.Collection, error) {
	r := dbsync.NewReceiver()
	for _, frame := range frames {
		c, err := r.HandleFrame(frame)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, errors.New("transfer did not complete")
}

func TestGetItem_NotFound(t *testing.T) {
	server := testServer(&mockStore{})

	if _, _, err := server.handleGetItem(context.Background(), nil, GetItemInput{ID: 7}); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := server.handleGetItem(context.Background(), nil, GetItemInput{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuildSyncFrames_NoSnapshot(t *testing.T) {
	server := testServer(&mockStore{})
	_, _, err := server.handleBuildSyncFrames(context.Background(), nil, BuildSyncFramesInput{})
	if !errors.Is(err, catalog.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestCommit_ValidationFailure(t *testing.T) {
	ws := catalog.NewWorkspace()
	ws.Working.Items[1] = item.Item{Name: "No guid"}
	db := &mockStore{workspace: ws}
	server := testServer(db)

	if _, _, err := server.handleCommit(context.Background(), nil, CommitInput{Name: "x"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if db.saveCalls != 0 {
		t.Fatalf("expected no save after failed commit")
	}
}

func TestMessageTools(t *testing.T) {
	server := testServer(&mockStore{})
	ctx := context.Background()

	_, give, err := server.handleBuildGive(ctx, nil, BuildGiveInput{Target: "Bob", GUID: "guid-1", CustomMessage: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if give.Message != "GIVE^Bob^guid-1^hello^^0" {
		t.Fatalf("unexpected message %q", give.Message)
	}

	_, trade, _ := server.handleBuildGive(ctx, nil, BuildGiveInput{Target: "Bob", GUID: "guid-1", Trade: true})
	if trade.Message != "TRADE^Bob^guid-1^^^0" {
		t.Fatalf("unexpected message %q", trade.Message)
	}

	_, parsed, err := server.handleParseMessage(ctx, nil, ParseMessageInput{Raw: message.BuildAcceptMessage("Bob", "guid-1")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Type != "ACCEPT" || !parsed.Known || !parsed.Encoded || len(parsed.Fields) != 3 {
		t.Fatalf("unexpected parse output: %+v", parsed)
	}

	_, unknown, _ := server.handleParseMessage(ctx, nil, ParseMessageInput{Raw: "PING^x"})
	if unknown.Known {
		t.Fatalf("expected unknown type, got %+v", unknown)
	}

	if _, _, err := server.handleBuildGive(ctx, nil, BuildGiveInput{GUID: "g"}); err == nil {
		t.Fatalf("expected error without target")
	}
	for _, input := range []BuildGiveInput{
		{Target: "Bob", GUID: "guid-1", CustomMessage: "a^b"},
		{Target: "Bob", GUID: "guid-1", CustomText: "x^1"},
	} {
		if _, _, err := server.handleBuildGive(ctx, nil, input); !errors.Is(err, message.ErrSeparatorInField) {
			t.Fatalf("expected ErrSeparatorInField for %+v, got %v", input, err)
		}
	}
}

func TestLookupReceived(t *testing.T) {
	c := item.NewCollection()
	c.Items[1] = item.Item{GUID: "g-letter", Name: "Letter"}
	c.Metadata = item.Metadata{ID: "db-1", Name: "Mail"}
	db := &mockStore{received: &store.Received{Sender: "Gm", Collection: c}}
	server := testServer(db)

	_, out, err := server.handleLookupReceived(context.Background(), nil, LookupReceivedInput{GUID: "g-letter"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Item.Name != "Letter" || out.Sender != "Gm" || out.Database.ID != "db-1" {
		t.Fatalf("unexpected lookup output: %+v", out)
	}

	if _, _, err := server.handleLookupReceived(context.Background(), nil, LookupReceivedInput{GUID: "missing"}); err == nil {
		t.Fatalf("expected error for missing guid")
	}
	if _, _, err := testServer(&mockStore{}).handleLookupReceived(context.Background(), nil, LookupReceivedInput{GUID: "g"}); err == nil {
		t.Fatalf("expected error without received collection")
	}
}
