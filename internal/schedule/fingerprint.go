package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprints summarizes the two independently comparable aspects of a
// snapshot. Content and ticker hashes are decoupled so a ticker edit never
// interrupts playing content and a content edit never restarts the ticker.
type Fingerprints struct {
	Content string
	Ticker  string
}

// ContentHash digests the stable identity of every media item: its id and
// effective display duration. The pair list is sorted before hashing so
// reordering items without changing durations does not force a reload.
func ContentHash(items []MediaItem) string {
	pairs := make([]string, 0, len(items))
	for _, item := range items {
		pairs = append(pairs, fmt.Sprintf("%s:%g", item.ID, item.DisplaySeconds(0)))
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(strings.Join(pairs, "|")))
	return hex.EncodeToString(sum[:])
}

// TickerHash digests the externally controllable ticker state.
func TickerHash(text string, speed int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d", text, speed)))
	return hex.EncodeToString(sum[:])
}

// Compute derives both fingerprints from a snapshot. The ticker hash uses
// fallbackText when the snapshot carries no ticker text, mirroring how the
// player keeps its previous ticker when the CMS sends an empty one.
func Compute(s *Snapshot, fallbackText string, fallbackSpeed int) Fingerprints {
	if s == nil {
		return Fingerprints{Content: ContentHash(nil), Ticker: TickerHash(fallbackText, fallbackSpeed)}
	}
	text := s.TickerText
	if strings.TrimSpace(text) == "" {
		text = fallbackText
	}
	speed := s.TickerSpeed
	if speed <= 0 {
		speed = fallbackSpeed
	}
	return Fingerprints{
		Content: ContentHash(s.Media),
		Ticker:  TickerHash(text, speed),
	}
}
