package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rpitems/internal/catalog"
	"rpitems/internal/channel"
	"rpitems/internal/config"
	"rpitems/internal/dbsync"
	"rpitems/internal/message"
	"rpitems/internal/status"
	"rpitems/internal/store"
)

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive sync transfers and item messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			ch, err := openChannel(ctx, cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			l := newListener(cfg, db, ch)
			err = l.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// listener answers protocol traffic for the local player. Completed sync
// transfers are persisted; GIVE and TRADE addressed to the player are answered
// with ACCEPT or REJECT depending on whether the item is known.
type listener struct {
	cfg      *config.ProjectConfig
	db       store.Store
	ch       channel.Channel
	receiver *dbsync.Receiver
}

func newListener(cfg *config.ProjectConfig, db store.Store, ch channel.Channel) *listener {
	return &listener{
		cfg:      cfg,
		db:       db,
		ch:       ch,
		receiver: dbsync.NewReceiver(),
	}
}

type contextHandler func(ctx context.Context, t message.Type, fields []string) error

// routes builds a router whose handlers run under ctx.
func (l *listener) routes(ctx context.Context) *message.Router {
	router := message.NewRouter()
	bind := func(h contextHandler) message.Handler {
		return func(t message.Type, fields []string) error {
			return h(ctx, t, fields)
		}
	}
	for _, t := range []message.Type{message.TypeSyncStart, message.TypeSyncChunk, message.TypeSyncEnd} {
		router.Handle(t, bind(l.handleSync))
	}
	router.Handle(message.TypeStatus, bind(l.handleStatus))
	router.Handle(message.TypeGive, bind(l.handleGive))
	router.Handle(message.TypeTrade, bind(l.handleGive))
	router.Handle(message.TypeShow, bind(l.handleShow))
	router.Handle(message.TypeAccept, bind(l.handleAccept))
	router.Handle(message.TypeReject, bind(l.handleReject))
	return router
}

func (l *listener) Run(ctx context.Context) error {
	msgs, err := l.ch.Subscribe(ctx)
	if err != nil {
		return err
	}
	router := l.routes(ctx)

	var prune <-chan time.Time
	if l.cfg.Receiver.StaleAfter > 0 {
		ticker := time.NewTicker(l.cfg.Receiver.StaleAfter)
		defer ticker.Stop()
		prune = ticker.C
	}

	log.Infof("action: listen | result: success | channel: %s | player: %s", l.cfg.Transport.Channel, l.cfg.Player)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-prune:
			if n := l.receiver.Prune(now.Add(-l.cfg.Receiver.StaleAfter)); n > 0 {
				log.Infof("action: prune_transfers | result: success | removed: %d", n)
			}
		case raw, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			handle(router, raw)
		}
	}
}

// handle dispatches one message. Handler failures are logged and dropped so a
// bad peer cannot stop the listener.
func handle(router *message.Router, raw string) {
	if _, err := router.Dispatch(raw); err != nil {
		log.Warningf("action: handle_message | result: drop | error: %v", err)
	}
}

func (l *listener) handleSync(ctx context.Context, t message.Type, fields []string) error {
	c, err := l.receiver.HandleFields(t, fields)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	// The wire does not name the sender; the channel name stands in for it.
	if err := l.db.SaveReceived(ctx, l.cfg.Transport.Channel, c); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Received %s %q v%d (%d items)\n", c.Metadata.ID, c.Metadata.Name, c.Metadata.Version, c.Len())
	return nil
}

func (l *listener) handleStatus(ctx context.Context, t message.Type, fields []string) error {
	req := message.DecodeStatus(fields)
	if req.Sender == l.cfg.Player {
		return nil
	}
	received, err := l.db.LoadReceived(ctx, "")
	if err != nil {
		return err
	}
	var reply string
	if received != nil {
		reply = status.Reply(req, l.cfg.Player, received.Collection.Metadata)
	} else {
		reply = message.BuildResultMessage(req.RequestID, l.cfg.Player, "", 0, "")
	}
	return l.ch.Publish(ctx, reply)
}

func (l *listener) library(ctx context.Context) (*catalog.Library, error) {
	received, err := l.db.LoadReceived(ctx, "")
	if err != nil {
		return nil, err
	}
	if received == nil {
		return catalog.NewLibrary(nil), nil
	}
	return catalog.NewLibrary(received.Collection), nil
}

func (l *listener) handleGive(ctx context.Context, t message.Type, fields []string) error {
	give := message.DecodeGive(fields)
	if give.Target != l.cfg.Player {
		return nil
	}
	lib, err := l.library(ctx)
	if err != nil {
		return err
	}
	inst, err := lib.Give(give)
	if err != nil {
		log.Warningf("action: %s | result: fail | guid: %s | error: %v", t, give.GUID, err)
		return l.ch.Publish(ctx, message.BuildRejectMessage(l.cfg.Player, give.GUID, "unknown item"))
	}
	printInstance(inst)
	return l.ch.Publish(ctx, message.BuildAcceptMessage(l.cfg.Player, give.GUID))
}

func (l *listener) handleShow(ctx context.Context, t message.Type, fields []string) error {
	show := message.DecodeShow(fields)
	if show.Target != l.cfg.Player {
		return nil
	}
	lib, err := l.library(ctx)
	if err != nil {
		return err
	}
	inst, err := lib.Show(show)
	if err != nil {
		return err
	}
	printInstance(inst)
	return nil
}

func (l *listener) handleAccept(ctx context.Context, t message.Type, fields []string) error {
	accept := message.DecodeAccept(fields)
	log.Infof("action: accept | result: success | sender: %s | guid: %s", accept.Sender, accept.GUID)
	return nil
}

func (l *listener) handleReject(ctx context.Context, t message.Type, fields []string) error {
	reject := message.DecodeReject(fields)
	log.Infof("action: reject | result: success | sender: %s | guid: %s | reason: %s", reject.Sender, reject.GUID, reject.Reason)
	return nil
}

func printInstance(inst catalog.Instance) {
	fmt.Fprintf(os.Stdout, "[%s] %s (counter %d)\n", inst.Item.GUID, inst.Item.Name, inst.Counter)
	if inst.CustomMessage != "" {
		fmt.Fprintf(os.Stdout, "  %q\n", inst.CustomMessage)
	}
	if content := inst.Content(); content != "" {
		fmt.Fprintf(os.Stdout, "  %s\n", content)
	}
	for _, a := range inst.VisibleActions() {
		fmt.Fprintf(os.Stdout, "  > %s\n", a.Label)
	}
}
