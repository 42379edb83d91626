// Package guid generates item and transfer identifiers of the form
// <unix>-<8 random digits>[-<8 hex checksum of seed>].
package guid

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"rpitems/internal/checksum"
)

const (
	randomMin = 10000000
	randomMax = 99999999
)

// Generator carries the clock and random source so tests can pin both.
type Generator struct {
	Now    func() time.Time
	Random func() int
}

var defaultGenerator = Generator{}

// New uses the wall clock and the global random source.
func New(seed string) string {
	return defaultGenerator.New(seed)
}

func (g Generator) New(seed string) string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	random := func() int { return randomMin + rand.IntN(randomMax-randomMin+1) }
	if g.Random != nil {
		random = g.Random
	}

	id := fmt.Sprintf("%d-%08d", now().Unix(), random())
	if seed == "" {
		return id
	}
	return id + "-" + checksum.String(seed)
}

// Parts splits a GUID into its timestamp, random and optional checksum parts.
func Parts(guid string) (timestamp int64, random string, sum string, ok bool) {
	pieces := strings.Split(guid, "-")
	if len(pieces) != 2 && len(pieces) != 3 {
		return 0, "", "", false
	}
	ts, err := strconv.ParseInt(pieces[0], 10, 64)
	if err != nil {
		return 0, "", "", false
	}
	if len(pieces[1]) != 8 {
		return 0, "", "", false
	}
	if len(pieces) == 3 {
		sum = pieces[2]
	}
	return ts, pieces[1], sum, true
}
