// Package validate implements the WhatsApp sticker pack content rules.
//
// A PackValidator checks pack-level metadata (identifier, names, links, tray
// image, sticker count) and a StickerValidator checks each sticker file
// against the static or animated envelope declared by its pack. Both are
// stateless: every call works only on its arguments plus the AssetFetcher and
// ImageDecoder capabilities handed to the constructor, so a single validator
// can be shared between goroutines.
package validate

import (
	"context"
	"time"
)

// StickerPack is a candidate or persisted sticker pack
type StickerPack struct {
	Identifier              string    `json:"identifier"`
	Name                    string    `json:"name"`
	Publisher               string    `json:"publisher"`
	TrayImageFile           string    `json:"tray_image_file"`
	AndroidPlayStoreLink    string    `json:"android_play_store_link,omitempty"`
	IOSAppStoreLink         string    `json:"ios_app_store_link,omitempty"`
	PublisherEmail          string    `json:"publisher_email,omitempty"`
	PublisherWebsite        string    `json:"publisher_website,omitempty"`
	PrivacyPolicyWebsite    string    `json:"privacy_policy_website,omitempty"`
	LicenseAgreementWebsite string    `json:"license_agreement_website,omitempty"`
	ImageDataVersion        string    `json:"image_data_version"`
	AvoidCache              bool      `json:"avoid_cache"`
	AnimatedStickerPack     bool      `json:"animated_sticker_pack"`
	Stickers                []Sticker `json:"stickers"`
}

// Sticker is one image or animation inside a pack
type Sticker struct {
	ImageFileName     string   `json:"image_file"`
	Emojis            []string `json:"emojis"`
	AccessibilityText string   `json:"accessibility_text,omitempty"`
	Size              int64    `json:"-"` // Byte length, known once the asset has been fetched
	Quarantined       bool     `json:"-"` // Marked invalid in storage pending repair
	LastError         Kind     `json:"-"` // Most recent content-rule failure, empty when none
}

// ActiveStickers returns the stickers that are not quarantined, in order
func (p *StickerPack) ActiveStickers() []Sticker {
	active := make([]Sticker, 0, len(p.Stickers))
	for _, s := range p.Stickers {
		if !s.Quarantined {
			active = append(active, s)
		}
	}
	return active
}

// ImageInfo is what an ImageDecoder reports about an encoded image.
// Still images have FrameCount 1 and no frame durations.
type ImageInfo struct {
	Format         string // "webp", "png", "jpeg", "gif"
	Width          int
	Height         int
	FrameCount     int
	FrameDurations []time.Duration
	Duration       time.Duration
}

// AssetFetcher supplies the raw bytes of a named pack asset.
// Implementations report a missing asset with an error wrapping ErrAssetNotFound.
type AssetFetcher interface {
	Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error)
}

// ImageDecoder reports dimensions and animation data for encoded image bytes
type ImageDecoder interface {
	Decode(data []byte) (*ImageInfo, error)
}
