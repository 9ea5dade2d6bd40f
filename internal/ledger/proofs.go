package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/zeebo/blake3"
)

// deriveProofKey normalizes the configured secret to the 32-byte key
// blake3 keyed hashing expects.
func deriveProofKey(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// proofHash derives the unforgeable per-ticket fingerprint from the mint
// facts. The same inputs always produce the same hash, so a proof can be
// re-derived and checked off-ledger by anyone holding the key.
func (l *Ledger) proofHash(eventID, ticketID uint64, minter string, mintedAt time.Time) []byte {
	h, err := blake3.NewKeyed(l.proofKey[:])
	if err != nil {
		// only possible with a wrong key length, which deriveProofKey rules out
		panic(err)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], eventID)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], ticketID)
	h.Write(buf[:])
	h.Write([]byte(minter))
	binary.BigEndian.PutUint64(buf[:], uint64(mintedAt.UnixNano()))
	h.Write(buf[:])

	return h.Sum(nil)
}
