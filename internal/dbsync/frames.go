package dbsync

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rpitems/internal/codec"
	"rpitems/internal/guid"
	"rpitems/internal/item"
	"rpitems/internal/message"
	"rpitems/internal/serial"
)

// MessageIDSeed seeds every transfer id so sync ids are recognisable.
const MessageIDSeed = "DB_SYNC"

// DefaultChunkSize leaves room for the CHUNK envelope under a 255 byte
// transport limit.
const DefaultChunkSize = 180

// chunkEnvelope is the worst case CHUNK overhead excluding the message id:
// tag, four separators and two five digit counters.
const chunkEnvelope = len(message.TypeSyncChunk) + 4 + 5 + 5

// maxMessageIDLen is the length of a seeded guid with a 10 digit timestamp.
const maxMessageIDLen = 10 + 1 + 8 + 1 + 8

// DefaultMaxMessageBytes is the addon channel limit frames are built for
// unless a Sender says otherwise.
const DefaultMaxMessageBytes = 255

// startEnvelope is the worst case START overhead excluding the collection
// name: tag, six separators, message and database ids, a 10 digit version,
// the 8 digit checksum and a 10 digit payload size.
const startEnvelope = len(message.TypeSyncStart) + 6 + maxMessageIDLen + maxMessageIDLen + 10 + 8 + 10

var (
	ErrNilSnapshot    = errors.New("no committed snapshot")
	ErrBadChunkSize   = errors.New("chunk size must be positive")
	ErrMalformedFrame = errors.New("malformed sync frame")
	ErrNameTooLong    = errors.New("collection name does not fit the START frame")
)

// MaxChunkSize is the largest chunk whose CHUNK frame fits in maxMessageBytes.
func MaxChunkSize(maxMessageBytes int) int {
	return maxMessageBytes - chunkEnvelope - maxMessageIDLen
}

// MaxNameBytes is the longest collection name whose START frame fits in
// maxMessageBytes.
func MaxNameBytes(maxMessageBytes int) int {
	return maxMessageBytes - startEnvelope
}

// CheckName reports ErrNameTooLong when name cannot travel in a START frame
// under maxMessageBytes.
func CheckName(name string, maxMessageBytes int) error {
	if limit := MaxNameBytes(maxMessageBytes); len(name) > limit {
		return fmt.Errorf("%d bytes, limit %d: %w", len(name), limit, ErrNameTooLong)
	}
	return nil
}

type Sender struct {
	ChunkSize int
	// MaxMessageBytes bounds the START frame; zero disables the check.
	MaxMessageBytes int
	NewID           func() string
}

func NewSender(chunkSize int) *Sender {
	return &Sender{ChunkSize: chunkSize, MaxMessageBytes: DefaultMaxMessageBytes}
}

// BuildSyncFrames builds frames for snapshot with a fresh message id.
func BuildSyncFrames(snapshot *item.Collection, chunkSize int) ([]string, error) {
	return NewSender(chunkSize).BuildSyncFrames(snapshot)
}

// BuildSyncFrames serializes the snapshot, Base64-encodes the whole payload and
// splits it into START, CHUNK... and END frames. The encoding runs over the
// whole blob so the serialization delimiters never reach the transport.
func (s *Sender) BuildSyncFrames(snapshot *item.Collection) ([]string, error) {
	if snapshot == nil {
		return nil, ErrNilSnapshot
	}
	if s.ChunkSize <= 0 {
		return nil, fmt.Errorf("building sync frames: %w", ErrBadChunkSize)
	}

	encoded := codec.EncodeString(serial.SerializeCollection(snapshot))
	messageID := s.newID()

	start := BuildStartFrame(messageID, snapshot.Metadata, len(encoded))
	if s.MaxMessageBytes > 0 && len(start) > s.MaxMessageBytes {
		return nil, fmt.Errorf("building sync frames: START frame is %d bytes, limit %d: %w", len(start), s.MaxMessageBytes, ErrNameTooLong)
	}

	chunks := splitChunks(encoded, s.ChunkSize)
	frames := make([]string, 0, len(chunks)+2)
	frames = append(frames, start)
	for i, chunk := range chunks {
		frames = append(frames, BuildChunkFrame(messageID, i+1, len(chunks), chunk))
	}
	frames = append(frames, BuildEndFrame(messageID))
	return frames, nil
}

func (s *Sender) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return guid.New(MessageIDSeed)
}

func splitChunks(s string, size int) []string {
	chunks := make([]string, 0, (len(s)+size-1)/size)
	for start := 0; start < len(s); start += size {
		chunks = append(chunks, s[start:min(start+size, len(s))])
	}
	return chunks
}

func BuildStartFrame(messageID string, meta item.Metadata, encodedLength int) string {
	return message.Build(message.TypeSyncStart,
		messageID,
		meta.ID,
		meta.Name,
		strconv.FormatInt(meta.Version, 10),
		meta.Checksum,
		strconv.Itoa(encodedLength),
	)
}

func BuildChunkFrame(messageID string, index, total int, data string) string {
	return message.Build(message.TypeSyncChunk, messageID, strconv.Itoa(index), strconv.Itoa(total), data)
}

func BuildEndFrame(messageID string) string {
	return message.Build(message.TypeSyncEnd, messageID)
}

type startFrame struct {
	messageID string
	meta      item.Metadata
	totalSize int
}

// parseStart reads the fixed fields from both ends so a collection name
// containing the separator stays intact.
func parseStart(fields []string) (startFrame, error) {
	if len(fields) < 7 {
		return startFrame{}, fmt.Errorf("start frame has %d fields: %w", len(fields), ErrMalformedFrame)
	}
	n := len(fields)
	version, err := strconv.ParseInt(fields[n-3], 10, 64)
	if err != nil {
		return startFrame{}, fmt.Errorf("start frame version %q: %w", fields[n-3], ErrMalformedFrame)
	}
	totalSize, err := strconv.Atoi(fields[n-1])
	if err != nil || totalSize < 0 {
		return startFrame{}, fmt.Errorf("start frame size %q: %w", fields[n-1], ErrMalformedFrame)
	}
	if fields[1] == "" {
		return startFrame{}, fmt.Errorf("start frame without message id: %w", ErrMalformedFrame)
	}
	return startFrame{
		messageID: fields[1],
		meta: item.Metadata{
			ID:       fields[2],
			Name:     strings.Join(fields[3:n-3], message.Separator),
			Version:  version,
			Checksum: fields[n-2],
		},
		totalSize: totalSize,
	}, nil
}

type chunkFrame struct {
	messageID string
	index     int
	total     int
	data      string
}

func parseChunk(fields []string) (chunkFrame, error) {
	if len(fields) != 5 {
		return chunkFrame{}, fmt.Errorf("chunk frame has %d fields: %w", len(fields), ErrMalformedFrame)
	}
	index, err := strconv.Atoi(fields[2])
	if err != nil || index < 1 {
		return chunkFrame{}, fmt.Errorf("chunk index %q: %w", fields[2], ErrMalformedFrame)
	}
	total, err := strconv.Atoi(fields[3])
	if err != nil || total < index {
		return chunkFrame{}, fmt.Errorf("chunk total %q: %w", fields[3], ErrMalformedFrame)
	}
	return chunkFrame{messageID: fields[1], index: index, total: total, data: fields[4]}, nil
}
