package message

import (
	"fmt"

	"github.com/op/go-logging"

	"rpitems/internal/logger"
)

var log = logging.MustGetLogger(logger.Module)

type Handler func(t Type, fields []string) error

// Router dispatches raw messages by type. Unknown types and types without a
// handler are ignored so older peers keep working alongside newer senders.
type Router struct {
	handlers map[Type]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[Type]Handler)}
}

func (r *Router) Handle(t Type, h Handler) {
	r.handlers[t] = h
}

// Dispatch reports whether a handler ran.
func (r *Router) Dispatch(raw string) (bool, error) {
	t, fields := Parse(raw)
	if !Known(t) {
		log.Debugf("action: dispatch | result: ignored | reason: unknown type | type: %.32s", t)
		return false, nil
	}
	h, ok := r.handlers[t]
	if !ok {
		log.Debugf("action: dispatch | result: ignored | reason: no handler | type: %s", t)
		return false, nil
	}
	if err := h(t, fields); err != nil {
		return true, fmt.Errorf("handling %s: %w", t, err)
	}
	return true, nil
}
