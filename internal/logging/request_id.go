package logging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var requestIDCounter atomic.Uint64

// GenerateRequestID returns an identifier for a connection or request in the
// form "<unix seconds hex>-<counter>-<random>", e.g. "65dc5a80-0001-a1b2c3d4".
func GenerateRequestID() string {
	random := make([]byte, 4)
	suffix := "00000000"
	if _, err := rand.Read(random); err == nil {
		suffix = hex.EncodeToString(random)
	}
	return fmt.Sprintf("%08x-%s-%s", uint32(time.Now().Unix()), formatCounter(requestIDCounter.Add(1)), suffix)
}

// formatCounter returns the low 16 bits of counter as four hex digits.
func formatCounter(counter uint64) string {
	return fmt.Sprintf("%04x", uint16(counter))
}
