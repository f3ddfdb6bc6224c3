package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48 bits of millisecond time, a 16 bit sequence that
// keeps IDs from the same millisecond ordered, and 64 random bits, written
// as 26 Crockford base32 characters.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

func generateULID() string {
	ulidMu.Lock()
	ts := uint64(time.Now().UnixMilli())
	if ts <= lastTS {
		ts = lastTS
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}
	hi := ts<<16 | uint64(lastSeq)
	ulidMu.Unlock()

	var rnd [8]byte
	rand.Read(rnd[:])
	return encodeULID(hi, binary.BigEndian.Uint64(rnd[:]))
}

// encodeULID writes the 128 bit value hi:lo five bits at a time, least
// significant character last.
func encodeULID(hi, lo uint64) string {
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
