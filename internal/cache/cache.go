package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Cache defines the interface for caching serialized verification results
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Fingerprint derives the cache key for a verification call from the answer,
// the evidence set identity, the query and the level. Each field is
// length-prefixed before hashing so concatenation ambiguity cannot collide
// two different inputs.
func Fingerprint(answer string, chunks []model.EvidenceChunk, query string, level model.Level) string {
	h := sha256.New()

	writeField := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	writeField(answer)
	writeField(query)
	writeField(string(level))
	for _, c := range chunks {
		writeField(c.Text)
		writeField(c.Source())
	}

	return "groundcheck:v1:" + hex.EncodeToString(h.Sum(nil))
}
