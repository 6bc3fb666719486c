package validate

import (
	"fmt"
	"strings"
	"time"
)

// Variant names accepted by LimitsFor
const (
	VariantStandard = "standard"
	VariantLite     = "lite"
)

// Limits holds the numeric envelope a pack must fit in. The sticker, tray and
// animation values are dictated by WhatsApp and are the same for every
// variant; only the character ceilings differ between app variants.
type Limits struct {
	IdentifierMaxLen int
	PublisherMaxLen  int
	NameMaxLen       int
	EmojiMaxCount    int

	StickerMinCount int
	StickerMaxCount int

	TrayMaxBytes int64
	TrayMinDim   int
	TrayMaxDim   int

	StaticMaxBytes   int64
	AnimatedMaxBytes int64
	StickerDim       int

	MinFrameDuration     time.Duration
	MaxAnimationDuration time.Duration

	StaticAccessibilityMax   int
	AnimatedAccessibilityMax int
}

// StandardLimits returns the rule set used by the full app
func StandardLimits() Limits {
	return Limits{
		IdentifierMaxLen: 128,
		PublisherMaxLen:  128,
		NameMaxLen:       128,
		EmojiMaxCount:    3,

		StickerMinCount: 3,
		StickerMaxCount: 30,

		TrayMaxBytes: 50 * 1024,
		TrayMinDim:   24,
		TrayMaxDim:   512,

		StaticMaxBytes:   100 * 1024,
		AnimatedMaxBytes: 500 * 1024,
		StickerDim:       512,

		MinFrameDuration:     8 * time.Millisecond,
		MaxAnimationDuration: 10 * time.Second,

		StaticAccessibilityMax:   125,
		AnimatedAccessibilityMax: 255,
	}
}

// LiteLimits returns the rule set of the lite app, which caps publisher and
// pack names at 64 characters.
func LiteLimits() Limits {
	l := StandardLimits()
	l.PublisherMaxLen = 64
	l.NameMaxLen = 64
	return l
}

// LimitsFor resolves a variant name; the empty string means standard
func LimitsFor(variant string) (Limits, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "", VariantStandard:
		return StandardLimits(), nil
	case VariantLite:
		return LiteLimits(), nil
	default:
		return Limits{}, fmt.Errorf("unknown limits variant: %s (valid: standard, lite)", variant)
	}
}

// StickerMaxBytes returns the file size ceiling for the pack mode
func (l Limits) StickerMaxBytes(animated bool) int64 {
	if animated {
		return l.AnimatedMaxBytes
	}
	return l.StaticMaxBytes
}

// AccessibilityMax returns the accessibility text ceiling for the pack mode
func (l Limits) AccessibilityMax(animated bool) int {
	if animated {
		return l.AnimatedAccessibilityMax
	}
	return l.StaticAccessibilityMax
}
