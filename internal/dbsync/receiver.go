package dbsync

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/op/go-logging"

	"rpitems/internal/checksum"
	"rpitems/internal/codec"
	"rpitems/internal/item"
	"rpitems/internal/logger"
	"rpitems/internal/message"
	"rpitems/internal/serial"
)

var log = logging.MustGetLogger(logger.Module)

// Receiver failures. None of them is signalled back to the sender; a failed
// transfer is retried by a new sync from the authoring side.
var (
	ErrNotSyncFrame     = errors.New("not a sync frame")
	ErrUnknownTransfer  = errors.New("no start frame seen for transfer")
	ErrIncomplete       = errors.New("transfer incomplete")
	ErrDecode           = errors.New("transfer payload could not be decoded")
	ErrChecksumMismatch = errors.New("transfer checksum mismatch")
)

// Transfer is the receive state of one in-progress sync.
type Transfer struct {
	MessageID   string
	Metadata    item.Metadata
	TotalSize   int
	TotalChunks int
	Chunks      map[int]string
	StartedAt   time.Time
}

// Receiver reassembles sync transfers keyed by message id. Transfers that
// never see their END frame stay in the table until Prune removes them.
type Receiver struct {
	mu        sync.Mutex
	transfers map[string]*Transfer
	now       func() time.Time
}

func NewReceiver() *Receiver {
	return &Receiver{
		transfers: make(map[string]*Transfer),
		now:       time.Now,
	}
}

// HandleFrame feeds one raw frame to the state machine. It returns a non-nil
// collection only when an END frame completes a verified transfer. Every
// failure leaves the collection nil and is reported through err.
func (r *Receiver) HandleFrame(frame string) (*item.Collection, error) {
	t, fields := message.Parse(frame)
	return r.HandleFields(t, fields)
}

// HandleFields is HandleFrame for a frame already parsed by the message layer.
func (r *Receiver) HandleFields(t message.Type, fields []string) (*item.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch t {
	case message.TypeSyncStart:
		return nil, r.handleStart(fields)
	case message.TypeSyncChunk:
		return nil, r.handleChunk(fields)
	case message.TypeSyncEnd:
		return r.handleEnd(fields)
	default:
		return nil, ErrNotSyncFrame
	}
}

func (r *Receiver) handleStart(fields []string) error {
	start, err := parseStart(fields)
	if err != nil {
		log.Warningf("action: sync_start | result: drop | error: %v", err)
		return err
	}
	r.transfers[start.messageID] = &Transfer{
		MessageID: start.messageID,
		Metadata:  start.meta,
		TotalSize: start.totalSize,
		Chunks:    make(map[int]string),
		StartedAt: r.now(),
	}
	log.Debugf("action: sync_start | result: success | message_id: %s | db: %s | size: %d", start.messageID, start.meta.ID, start.totalSize)
	return nil
}

func (r *Receiver) handleChunk(fields []string) error {
	chunk, err := parseChunk(fields)
	if err != nil {
		log.Warningf("action: sync_chunk | result: drop | error: %v", err)
		return err
	}
	transfer, ok := r.transfers[chunk.messageID]
	if !ok {
		log.Debugf("action: sync_chunk | result: drop | message_id: %s | reason: no start", chunk.messageID)
		return fmt.Errorf("chunk %d of %s: %w", chunk.index, chunk.messageID, ErrUnknownTransfer)
	}
	transfer.Chunks[chunk.index] = chunk.data
	transfer.TotalChunks = chunk.total
	log.Debugf("action: sync_chunk | result: success | message_id: %s | chunk: %d/%d", chunk.messageID, chunk.index, chunk.total)
	return nil
}

func (r *Receiver) handleEnd(fields []string) (*item.Collection, error) {
	messageID := message.Field(fields, 1)
	transfer, ok := r.transfers[messageID]
	if !ok {
		log.Warningf("action: sync_end | result: drop | message_id: %s | reason: no start", messageID)
		return nil, fmt.Errorf("end of %s: %w", messageID, ErrUnknownTransfer)
	}

	blob, err := transfer.assemble()
	if err != nil {
		log.Warningf("action: sync_end | result: drop | message_id: %s | error: %v", messageID, err)
		return nil, err
	}

	c, err := serial.DeserializeCollection(codec.DecodeString(blob))
	if err != nil {
		delete(r.transfers, messageID)
		log.Warningf("action: sync_end | result: drop | message_id: %s | error: %v", messageID, err)
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	sum := checksum.Collection(c)
	if sum != transfer.Metadata.Checksum {
		delete(r.transfers, messageID)
		log.Warningf("action: sync_end | result: drop | message_id: %s | expected: %s | got: %s", messageID, transfer.Metadata.Checksum, sum)
		return nil, fmt.Errorf("transfer %s: expected %s, got %s: %w", messageID, transfer.Metadata.Checksum, sum, ErrChecksumMismatch)
	}

	delete(r.transfers, messageID)
	c.Metadata = transfer.Metadata
	log.Infof("action: sync_receive | result: success | message_id: %s | db: %s | version: %d | items: %d", messageID, c.Metadata.ID, c.Metadata.Version, c.Len())
	return c, nil
}

// assemble joins chunks by their declared index, so arrival order does not
// matter. A missing index or a count mismatch is a hard failure.
func (t *Transfer) assemble() (string, error) {
	if len(t.Chunks) != t.TotalChunks {
		return "", fmt.Errorf("transfer %s has %d of %d chunks: %w", t.MessageID, len(t.Chunks), t.TotalChunks, ErrIncomplete)
	}
	var b strings.Builder
	b.Grow(t.TotalSize)
	for i := 1; i <= t.TotalChunks; i++ {
		chunk, ok := t.Chunks[i]
		if !ok {
			return "", fmt.Errorf("transfer %s missing chunk %d: %w", t.MessageID, i, ErrIncomplete)
		}
		b.WriteString(chunk)
	}
	if b.Len() != t.TotalSize {
		return "", fmt.Errorf("transfer %s assembled %d of %d bytes: %w", t.MessageID, b.Len(), t.TotalSize, ErrIncomplete)
	}
	return b.String(), nil
}

// Pending returns the number of transfers that have not completed.
func (r *Receiver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

// Progress reports how many chunks of messageID have arrived.
func (r *Receiver) Progress(messageID string) (received, total int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer, ok := r.transfers[messageID]
	if !ok {
		return 0, 0, false
	}
	return len(transfer.Chunks), transfer.TotalChunks, true
}

// Prune forgets transfers started before cutoff and returns how many were
// removed. Nothing calls it implicitly.
func (r *Receiver) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, transfer := range r.transfers {
		if transfer.StartedAt.Before(cutoff) {
			delete(r.transfers, id)
			removed++
		}
	}
	if removed > 0 {
		log.Infof("action: sync_prune | result: success | removed: %d", removed)
	}
	return removed
}
