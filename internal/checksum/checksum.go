// Package checksum implements the weak additive hash used for collection
// integrity checks and GUID suffixes. It is not a security primitive.
package checksum

import (
	"fmt"
	"strings"

	"rpitems/internal/item"
)

const (
	offsetBasis int64 = 2166136261
	prime       int64 = 16777619
	maxHash     int64 = 2147483647
)

// Hash is a running accumulator. Each byte contributes b*prime to a sum that
// is folded modulo 2^31-1 whenever it exceeds that bound, so the result does
// not depend on the order in which bytes are written.
type Hash struct {
	sum int64
}

func New() *Hash {
	return &Hash{sum: offsetBasis}
}

func (h *Hash) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		h.sum += int64(s[i]) * prime
		if h.sum > maxHash {
			h.sum %= maxHash
		}
	}
}

func (h *Hash) Sum() int64 {
	return h.sum
}

// Hex formats the accumulator as eight lowercase hex digits.
func (h *Hash) Hex() string {
	return fmt.Sprintf("%08x", h.sum)
}

// String hashes s on its own.
func String(s string) string {
	h := New()
	h.WriteString(s)
	return h.Hex()
}

// Items checksums the canonical form of every item. Map iteration order is
// irrelevant. Method params, content templates and initial counters are not
// part of the canonical form.
func Items(items map[int]item.Item) string {
	h := New()
	for _, it := range items {
		h.WriteString(Canonical(it))
	}
	return h.Hex()
}

// Collection is Items over c.Items; metadata never contributes.
func Collection(c *item.Collection) string {
	if c == nil {
		return New().Hex()
	}
	return Items(c.Items)
}

// Canonical returns the per-item string that feeds the checksum. The GUID
// stands in as the item id so that local slot numbers, which are reassigned on
// the receiving side, do not affect the result.
func Canonical(it item.Item) string {
	var b strings.Builder
	b.WriteString(it.GUID)
	b.WriteString(it.Name)
	b.WriteString(it.Icon)
	b.WriteString(it.Tooltip)
	b.WriteString(it.Content)
	b.WriteString(it.GUID)
	for _, action := range it.Actions {
		b.WriteString(action.ID)
		b.WriteString(action.Label)
		for _, method := range action.Methods {
			b.WriteString(string(method.Type))
		}
	}
	return b.String()
}
