package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"time"
)

// Prefix is the fixed head of every tracking id
const Prefix = "TRACK-PAY"

var pattern = regexp.MustCompile(`^TRACK-PAY-\d{8}-[0-9a-f]{6}$`)

// NewID returns TRACK-PAY-<YYYYMMDD>-<6 hex chars> for the given instant (UTC date)
func NewID(now time.Time) (string, error) {
	return newID(now, rand.Reader)
}

func newID(now time.Time, src io.Reader) (string, error) {
	b := make([]byte, 3)
	if _, err := io.ReadFull(src, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", Prefix, now.UTC().Format("20060102"), hex.EncodeToString(b)), nil
}

// Valid reports whether id has the tracking id shape
func Valid(id string) bool {
	return pattern.MatchString(id)
}
