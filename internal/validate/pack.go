package validate

import (
	"context"
)

// PackValidator checks pack-level metadata and then each sticker
type PackValidator struct {
	limits   Limits
	fetcher  AssetFetcher
	decoder  ImageDecoder
	stickers *StickerValidator
}

// NewPackValidator creates a pack validator sharing one sticker validator
func NewPackValidator(limits Limits, fetcher AssetFetcher, decoder ImageDecoder) *PackValidator {
	return &PackValidator{
		limits:   limits,
		fetcher:  fetcher,
		decoder:  decoder,
		stickers: NewStickerValidator(limits, fetcher, decoder),
	}
}

// Limits returns the rule set the validator enforces
func (v *PackValidator) Limits() Limits {
	return v.limits
}

// Stickers returns the sticker validator used by Verify
func (v *PackValidator) Stickers() *StickerValidator {
	return v.stickers
}

// Verify runs the pack-level checks and then every sticker, stopping at the
// first violation.
func (v *PackValidator) Verify(ctx context.Context, pack *StickerPack) error {
	if err := v.VerifyMetadata(ctx, pack); err != nil {
		return err
	}
	for _, sticker := range pack.Stickers {
		if err := v.stickers.Verify(ctx, pack.Identifier, sticker, pack.AnimatedStickerPack); err != nil {
			return err
		}
	}
	return nil
}

// StickerFailure pairs a sticker with the error it failed on
type StickerFailure struct {
	FileName string
	Err      error
}

// Result is the outcome of Collect
type Result struct {
	PackErr  error
	Failures []StickerFailure
}

// OK reports whether neither the pack nor any sticker failed
func (r *Result) OK() bool {
	return r.PackErr == nil && len(r.Failures) == 0
}

// Collect runs the pack-level checks and, when they pass, verifies every
// sticker without stopping at the first sticker failure.
func (v *PackValidator) Collect(ctx context.Context, pack *StickerPack) *Result {
	res := &Result{}
	if err := v.VerifyMetadata(ctx, pack); err != nil {
		res.PackErr = err
		return res
	}
	for _, sticker := range pack.Stickers {
		if err := v.stickers.Verify(ctx, pack.Identifier, sticker, pack.AnimatedStickerPack); err != nil {
			res.Failures = append(res.Failures, StickerFailure{FileName: sticker.ImageFileName, Err: err})
		}
	}
	return res
}

// VerifyMetadata runs the pack-level checks in order: identifier, publisher,
// name, tray file name, links, email, tray image, sticker count.
func (v *PackValidator) VerifyMetadata(ctx context.Context, pack *StickerPack) error {
	if err := CheckIdentifier(pack.Identifier, v.limits.IdentifierMaxLen); err != nil {
		return &Error{Kind: KindInvalidIdentifier, PackIdentifier: pack.Identifier, Err: err}
	}

	if pack.Publisher == "" {
		return packError(KindInvalidPublisher, pack, "publisher is empty")
	}
	if n := CharCount(pack.Publisher); n > v.limits.PublisherMaxLen {
		return packError(KindInvalidPublisher, pack, "publisher is %d characters, max %d", n, v.limits.PublisherMaxLen)
	}

	if pack.Name == "" {
		return packError(KindInvalidStickerPackName, pack, "pack name is empty")
	}
	if n := CharCount(pack.Name); n > v.limits.NameMaxLen {
		return packError(KindInvalidStickerPackName, pack, "pack name is %d characters, max %d", n, v.limits.NameMaxLen)
	}

	if pack.TrayImageFile == "" {
		return packError(KindInvalidThumbnail, pack, "tray image file name is empty")
	}

	if err := v.checkLinks(pack); err != nil {
		return err
	}

	if pack.PublisherEmail != "" && !IsValidEmail(pack.PublisherEmail) {
		return packError(KindInvalidEmail, pack, "publisher email %q is not valid", pack.PublisherEmail)
	}

	if err := v.checkTray(ctx, pack); err != nil {
		return err
	}

	return v.VerifyStickerCount(pack)
}

// VerifyStickerCount checks that the pack holds an acceptable number of stickers
func (v *PackValidator) VerifyStickerCount(pack *StickerPack) error {
	if n := len(pack.Stickers); n < v.limits.StickerMinCount || n > v.limits.StickerMaxCount {
		return packError(KindInvalidStickerPackSize, pack, "pack has %d stickers, must have %d to %d",
			n, v.limits.StickerMinCount, v.limits.StickerMaxCount)
	}
	return nil
}

// CheckUniqueIdentifiers fails with KindDuplicateIdentifier on the first
// identifier that appears twice in packs.
func CheckUniqueIdentifiers(packs []StickerPack) error {
	seen := make(map[string]bool, len(packs))
	for i := range packs {
		id := packs[i].Identifier
		if seen[id] {
			return packError(KindDuplicateIdentifier, &packs[i], "identifier is used by more than one pack")
		}
		seen[id] = true
	}
	return nil
}

func (v *PackValidator) checkLinks(pack *StickerPack) error {
	storeLinks := []struct {
		value  string
		kind   Kind
		domain string
	}{
		{pack.AndroidPlayStoreLink, KindInvalidAndroidURL, PlayStoreDomain},
		{pack.IOSAppStoreLink, KindInvalidIOSURL, AppStoreDomain},
	}
	for _, link := range storeLinks {
		if link.value == "" {
			continue
		}
		if _, err := ParseWebURL(link.value); err != nil {
			return &Error{Kind: link.kind, PackIdentifier: pack.Identifier, Reason: link.value, Err: err}
		}
		if err := CheckURLDomain(link.value, link.domain); err != nil {
			return &Error{Kind: link.kind, PackIdentifier: pack.Identifier, Reason: link.value, Err: err}
		}
	}

	for _, site := range []string{pack.PublisherWebsite, pack.PrivacyPolicyWebsite, pack.LicenseAgreementWebsite} {
		if site == "" {
			continue
		}
		if _, err := ParseWebURL(site); err != nil {
			return &Error{Kind: KindInvalidWebsite, PackIdentifier: pack.Identifier, Reason: site, Err: err}
		}
	}

	return nil
}

func (v *PackValidator) checkTray(ctx context.Context, pack *StickerPack) error {
	data, err := v.fetcher.Fetch(ctx, pack.Identifier, pack.TrayImageFile)
	if err != nil {
		return &Error{
			Kind:           KindInvalidThumbnail,
			PackIdentifier: pack.Identifier,
			FileName:       pack.TrayImageFile,
			Reason:         "cannot read tray image",
			Err:            err,
		}
	}

	if size := int64(len(data)); size > v.limits.TrayMaxBytes {
		return stickerError(KindInvalidThumbnail, pack.Identifier, pack.TrayImageFile,
			"tray image is %d KB, max %d KB", size/1024, v.limits.TrayMaxBytes/1024)
	}

	info, err := v.decoder.Decode(data)
	if err != nil {
		return &Error{
			Kind:           KindInvalidThumbnail,
			PackIdentifier: pack.Identifier,
			FileName:       pack.TrayImageFile,
			Reason:         "cannot decode tray image",
			Err:            err,
		}
	}

	min, max := v.limits.TrayMinDim, v.limits.TrayMaxDim
	if info.Height < min || info.Height > max || info.Width < min || info.Width > max {
		return stickerError(KindInvalidThumbnail, pack.Identifier, pack.TrayImageFile,
			"tray image is %dx%d, each side must be %d to %d px", info.Width, info.Height, min, max)
	}

	return nil
}
