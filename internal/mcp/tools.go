package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rpitems/internal/catalog"
	"rpitems/internal/dbsync"
	"rpitems/internal/item"
	"rpitems/internal/message"
)

type ListItemsInput struct{}

type GetItemInput struct {
	ID   int    `json:"id,omitempty" jsonschema:"local item id"`
	GUID string `json:"guid,omitempty" jsonschema:"item guid, used when id is not set"`
}

type AddItemInput struct {
	Name     string `json:"name" jsonschema:"item name"`
	GUID     string `json:"guid,omitempty" jsonschema:"explicit guid; generated when empty"`
	Icon     string `json:"icon,omitempty" jsonschema:"icon texture name"`
	Tooltip  string `json:"tooltip,omitempty" jsonschema:"short tooltip text"`
	Content  string `json:"content,omitempty" jsonschema:"default display text"`
	Template string `json:"template,omitempty" jsonschema:"content template with a {custom-text} placeholder"`
	Counter  int    `json:"counter,omitempty" jsonschema:"initial instance counter"`
}

type CommitInput struct {
	Name string `json:"name,omitempty" jsonschema:"collection name; keeps the previous name when empty"`
}

type BuildSyncFramesInput struct {
	ChunkSize int `json:"chunk_size,omitempty" jsonschema:"chunk size override"`
}

type BuildGiveInput struct {
	Target        string `json:"target" jsonschema:"receiving player"`
	GUID          string `json:"guid" jsonschema:"item guid"`
	CustomMessage string `json:"custom_message,omitempty" jsonschema:"message shown with the item"`
	CustomText    string `json:"custom_text,omitempty" jsonschema:"text substituted into the content template"`
	CustomNumber  int    `json:"custom_number,omitempty" jsonschema:"instance counter override"`
	Trade         bool   `json:"trade,omitempty" jsonschema:"send as TRADE instead of GIVE"`
}

type ParseMessageInput struct {
	Raw string `json:"raw" jsonschema:"raw protocol message"`
}

type LookupReceivedInput struct {
	GUID       string `json:"guid" jsonschema:"item guid"`
	DatabaseID string `json:"database_id,omitempty" jsonschema:"received database id; latest when empty"`
}

type MethodOutput struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

type ActionOutput struct {
	ID                     string         `json:"id"`
	Label                  string         `json:"label"`
	Methods                []MethodOutput `json:"methods"`
	CustomTextEmpty        bool           `json:"custom_text_empty,omitempty"`
	CounterGreaterThanZero bool           `json:"counter_greater_than_zero,omitempty"`
}

type ItemOutput struct {
	ID       int            `json:"id,omitempty"`
	GUID     string         `json:"guid"`
	Name     string         `json:"name"`
	Icon     string         `json:"icon,omitempty"`
	Tooltip  string         `json:"tooltip,omitempty"`
	Content  string         `json:"content,omitempty"`
	Template string         `json:"template,omitempty"`
	Counter  int            `json:"counter"`
	Actions  []ActionOutput `json:"actions"`
}

type ItemSummaryOutput struct {
	ID      int    `json:"id"`
	GUID    string `json:"guid"`
	Name    string `json:"name"`
	Tooltip string `json:"tooltip,omitempty"`
	Actions int    `json:"actions"`
}

type ListItemsOutput struct {
	Items []ItemSummaryOutput `json:"items"`
	Dirty bool                `json:"dirty"`
}

type AddItemOutput struct {
	ID   int    `json:"id"`
	GUID string `json:"guid"`
}

type MetadataOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  int64  `json:"version"`
	Checksum string `json:"checksum"`
}

type CommitOutput struct {
	Metadata MetadataOutput `json:"metadata"`
	Items    int            `json:"items"`
}

type BuildSyncFramesOutput struct {
	Metadata MetadataOutput `json:"metadata"`
	Frames   []string       `json:"frames"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

type ParseMessageOutput struct {
	Type    string   `json:"type"`
	Known   bool     `json:"known"`
	Encoded bool     `json:"encoded"`
	Fields  []string `json:"fields"`
}

type LookupReceivedOutput struct {
	Database MetadataOutput `json:"database"`
	Sender   string         `json:"sender"`
	Item     ItemOutput     `json:"item"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_items",
		Description: "List items in the working collection",
	}, s.handleListItems)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_item",
		Description: "Retrieve a working item by id or guid",
	}, s.handleGetItem)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "add_item",
		Description: "Add an item to the working collection",
	}, s.handleAddItem)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "commit",
		Description: "Validate the working collection and commit a snapshot",
	}, s.handleCommit)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "build_sync_frames",
		Description: "Build the START, CHUNK and END frames for the committed snapshot",
	}, s.handleBuildSyncFrames)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "build_give",
		Description: "Build a GIVE or TRADE message referencing an item by guid",
	}, s.handleBuildGive)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "parse_message",
		Description: "Parse a raw protocol message, decoding Base64 when needed",
	}, s.handleParseMessage)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "lookup_received",
		Description: "Look up an item in a received collection by guid",
	}, s.handleLookupReceived)
}

func (s *Server) handleListItems(ctx context.Context, req *sdk.CallToolRequest, input ListItemsInput) (*sdk.CallToolResult, ListItemsOutput, error) {
	ws, err := s.db.LoadWorkspace(ctx)
	if err != nil {
		return nil, ListItemsOutput{}, err
	}

	entries := ws.Items()
	output := make([]ItemSummaryOutput, 0, len(entries))
	for _, e := range entries {
		output = append(output, ItemSummaryOutput{
			ID:      e.ID,
			GUID:    e.Item.GUID,
			Name:    e.Item.Name,
			Tooltip: e.Item.Tooltip,
			Actions: len(e.Item.Actions),
		})
	}
	return nil, ListItemsOutput{Items: output, Dirty: ws.Dirty()}, nil
}

func (s *Server) handleGetItem(ctx context.Context, req *sdk.CallToolRequest, input GetItemInput) (*sdk.CallToolResult, ItemOutput, error) {
	if input.ID == 0 && input.GUID == "" {
		return nil, ItemOutput{}, fmt.Errorf("id or guid is required")
	}
	ws, err := s.db.LoadWorkspace(ctx)
	if err != nil {
		return nil, ItemOutput{}, err
	}

	if input.ID != 0 {
		it, err := ws.Item(input.ID)
		if err != nil {
			return nil, ItemOutput{}, err
		}
		return nil, itemOutput(input.ID, it), nil
	}
	id, it, ok := ws.Working.FindGUID(input.GUID)
	if !ok {
		return nil, ItemOutput{}, fmt.Errorf("item %s not found", input.GUID)
	}
	return nil, itemOutput(id, it), nil
}

func (s *Server) handleAddItem(ctx context.Context, req *sdk.CallToolRequest, input AddItemInput) (*sdk.CallToolResult, AddItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.db.LoadWorkspace(ctx)
	if err != nil {
		return nil, AddItemOutput{}, err
	}
	id, err := ws.AddItem(item.Item{
		GUID:            input.GUID,
		Name:            input.Name,
		Icon:            input.Icon,
		Tooltip:         input.Tooltip,
		Content:         input.Content,
		ContentTemplate: input.Template,
		InitialCounter:  input.Counter,
	})
	if err != nil {
		return nil, AddItemOutput{}, err
	}
	if err := s.db.SaveWorkspace(ctx, ws); err != nil {
		return nil, AddItemOutput{}, err
	}
	it, _ := ws.Item(id)
	return nil, AddItemOutput{ID: id, GUID: it.GUID}, nil
}

func (s *Server) handleCommit(ctx context.Context, req *sdk.CallToolRequest, input CommitInput) (*sdk.CallToolResult, CommitOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.db.LoadWorkspace(ctx)
	if err != nil {
		return nil, CommitOutput{}, err
	}
	name := input.Name
	if name == "" && ws.Snapshot == nil && s.cfg != nil {
		name = s.cfg.Project
	}
	snapshot, err := ws.Commit(name, s.now())
	if err != nil {
		return nil, CommitOutput{}, err
	}
	if err := s.db.SaveWorkspace(ctx, ws); err != nil {
		return nil, CommitOutput{}, err
	}
	return nil, CommitOutput{Metadata: metadataOutput(snapshot.Metadata), Items: snapshot.Len()}, nil
}

func (s *Server) handleBuildSyncFrames(ctx context.Context, req *sdk.CallToolRequest, input BuildSyncFramesInput) (*sdk.CallToolResult, BuildSyncFramesOutput, error) {
	ws, err := s.db.LoadWorkspace(ctx)
	if err != nil {
		return nil, BuildSyncFramesOutput{}, err
	}
	snapshot, err := ws.Committed()
	if err != nil {
		return nil, BuildSyncFramesOutput{}, err
	}

	sender := dbsync.NewSender(dbsync.DefaultChunkSize)
	if s.cfg != nil {
		if s.cfg.Transport.ChunkSize > 0 {
			sender.ChunkSize = s.cfg.Transport.ChunkSize
		}
		if s.cfg.Transport.MaxMessageBytes > 0 {
			sender.MaxMessageBytes = s.cfg.Transport.MaxMessageBytes
		}
	}
	if input.ChunkSize != 0 {
		sender.ChunkSize = input.ChunkSize
	}
	frames, err := sender.BuildSyncFrames(snapshot)
	if err != nil {
		return nil, BuildSyncFramesOutput{}, err
	}
	return nil, BuildSyncFramesOutput{Metadata: metadataOutput(snapshot.Metadata), Frames: frames}, nil
}

func (s *Server) handleBuildGive(ctx context.Context, req *sdk.CallToolRequest, input BuildGiveInput) (*sdk.CallToolResult, MessageOutput, error) {
	if input.Target == "" || input.GUID == "" {
		return nil, MessageOutput{}, fmt.Errorf("target and guid are required")
	}
	if err := message.CheckFields(input.Target, input.GUID, input.CustomMessage, input.CustomText); err != nil {
		return nil, MessageOutput{}, fmt.Errorf("building message: %w", err)
	}
	build := message.BuildGiveMessage
	if input.Trade {
		build = message.BuildTradeMessage
	}
	return nil, MessageOutput{Message: build(input.Target, input.GUID, input.CustomMessage, input.CustomText, input.CustomNumber)}, nil
}

func (s *Server) handleParseMessage(ctx context.Context, req *sdk.CallToolRequest, input ParseMessageInput) (*sdk.CallToolResult, ParseMessageOutput, error) {
	if input.Raw == "" {
		return nil, ParseMessageOutput{}, fmt.Errorf("raw is required")
	}
	t, fields := message.Parse(input.Raw)
	return nil, ParseMessageOutput{
		Type:    string(t),
		Known:   message.Known(t),
		Encoded: message.Encoded(t),
		Fields:  fields,
	}, nil
}

func (s *Server) handleLookupReceived(ctx context.Context, req *sdk.CallToolRequest, input LookupReceivedInput) (*sdk.CallToolResult, LookupReceivedOutput, error) {
	if input.GUID == "" {
		return nil, LookupReceivedOutput{}, fmt.Errorf("guid is required")
	}
	received, err := s.db.LoadReceived(ctx, input.DatabaseID)
	if err != nil {
		return nil, LookupReceivedOutput{}, err
	}
	if received == nil {
		return nil, LookupReceivedOutput{}, fmt.Errorf("no received collection")
	}
	it, ok := catalog.NewLibrary(received.Collection).Lookup(input.GUID)
	if !ok {
		return nil, LookupReceivedOutput{}, fmt.Errorf("item %s not found in %s", input.GUID, received.Collection.Metadata.ID)
	}
	return nil, LookupReceivedOutput{
		Database: metadataOutput(received.Collection.Metadata),
		Sender:   received.Sender,
		Item:     itemOutput(0, it),
	}, nil
}

func metadataOutput(meta item.Metadata) MetadataOutput {
	return MetadataOutput{ID: meta.ID, Name: meta.Name, Version: meta.Version, Checksum: meta.Checksum}
}

func itemOutput(id int, it item.Item) ItemOutput {
	out := ItemOutput{
		ID:       id,
		GUID:     it.GUID,
		Name:     it.Name,
		Icon:     it.Icon,
		Tooltip:  it.Tooltip,
		Content:  it.Content,
		Template: it.ContentTemplate,
		Counter:  it.InitialCounter,
		Actions:  make([]ActionOutput, 0, len(it.Actions)),
	}
	for _, action := range it.Actions {
		a := ActionOutput{
			ID:                     action.ID,
			Label:                  action.Label,
			Methods:                make([]MethodOutput, 0, len(action.Methods)),
			CustomTextEmpty:        action.Conditions.CustomTextEmpty,
			CounterGreaterThanZero: action.Conditions.CounterGreaterThanZero,
		}
		for _, m := range action.Methods {
			a.Methods = append(a.Methods, MethodOutput{Type: string(m.Type), Params: m.Params})
		}
		out.Actions = append(out.Actions, a)
	}
	return out
}
