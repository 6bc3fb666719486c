package ingest

import (
	"fmt"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// Policy decides what happens to a sticker that fails a content rule
type Policy string

const (
	// PolicyDropSticker removes failing stickers from the persisted pack
	PolicyDropSticker Policy = "drop"
	// PolicyQuarantine keeps failing stickers, marked invalid with the rule kind
	PolicyQuarantine Policy = "quarantine"
)

// ParsePolicy converts a flag value into a Policy
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyDropSticker, PolicyQuarantine:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown policy: %s (valid: drop, quarantine)", s)
	}
}

// Report describes what ingestion or list-fetch did with one pack
type Report struct {
	Identifier string
	Name       string

	// PackErr is the pack-level violation that removed the whole pack
	PackErr error

	// Failures are content-rule violations of individual stickers
	Failures []validate.StickerFailure

	// Retryable are sticker asset fetch failures; the stickers were left out
	// but not marked invalid
	Retryable []validate.StickerFailure

	Kept        int
	Quarantined int
	Dropped     bool
	Persisted   bool
}

// OK reports whether the pack and all its stickers passed
func (r *Report) OK() bool {
	return r.PackErr == nil && len(r.Failures) == 0 && len(r.Retryable) == 0
}

// Summary counts outcomes over a batch of reports
type Summary struct {
	Packs       int
	Valid       int
	Dropped     int
	Failures    int
	Retryable   int
	Quarantined int
}

// Summarize totals a batch of reports
func Summarize(reports []*Report) Summary {
	var s Summary
	for _, r := range reports {
		s.Packs++
		if r.OK() {
			s.Valid++
		}
		if r.Dropped {
			s.Dropped++
		}
		s.Failures += len(r.Failures)
		s.Retryable += len(r.Retryable)
		s.Quarantined += r.Quarantined
	}
	return s
}
