package transform

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// SongplayKey assigns the surrogate identifier for one fact row. The ordinal
// is the row's position within the run so that two byte-identical events
// still receive distinct keys in stable mode.
type SongplayKey func(start time.Time, userID string, sessionID int64, ordinal int) string

// Key generation modes accepted in the pipeline config.
const (
	KeyModeRandom = "random"
	KeyModeStable = "stable"
)

// RandomKey returns a fresh UUID, uncorrelated with row content. Output is
// not reproducible across runs on identical input.
func RandomKey(time.Time, string, int64, int) string {
	return uuid.NewString()
}

// StableKey hashes the row's identifying fields plus its ordinal, so that
// reruns over unchanged input produce identical fact tables.
func StableKey(start time.Time, userID string, sessionID int64, ordinal int) string {
	payload := fmt.Sprintf("%d|%s|%d|%d", start.UnixMilli(), userID, sessionID, ordinal)
	return fmt.Sprintf("%016x", xxh3.HashString(payload))
}

// KeyGenerator resolves a key mode name to its generator function. An empty
// mode selects random keys, the historical behavior.
func KeyGenerator(mode string) (SongplayKey, error) {
	switch mode {
	case "", KeyModeRandom:
		return RandomKey, nil
	case KeyModeStable:
		return StableKey, nil
	default:
		return nil, fmt.Errorf("transform: unknown key mode %q", mode)
	}
}
