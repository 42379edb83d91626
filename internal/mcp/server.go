package mcp

import (
	"context"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"rpitems/internal/config"
	"rpitems/internal/store"
)

type Server struct {
	cfg *config.ProjectConfig
	db  store.Store
	mcp *sdk.Server

	// mu serializes load-modify-save of the workspace across tool calls.
	mu  sync.Mutex
	now func() time.Time
}

func NewServer(cfg *config.ProjectConfig, db store.Store, version string) *Server {
	s := &Server{
		cfg: cfg,
		db:  db,
		now: time.Now,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "rpitems",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
