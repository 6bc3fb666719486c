package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which content rule a pack or sticker violated.
// The string values are persisted as the sticker's last_error marker.
type Kind string

const (
	KindInvalidIdentifier      Kind = "INVALID_IDENTIFIER"
	KindInvalidPublisher       Kind = "INVALID_PUBLISHER"
	KindInvalidStickerPackName Kind = "INVALID_STICKERPACK_NAME"
	KindInvalidThumbnail       Kind = "INVALID_THUMBNAIL"
	KindInvalidAndroidURL      Kind = "INVALID_ANDROID_URL_SITE"
	KindInvalidIOSURL          Kind = "INVALID_IOS_URL_SITE"
	KindInvalidWebsite         Kind = "INVALID_WEBSITE"
	KindInvalidEmail           Kind = "INVALID_EMAIL"
	KindInvalidStickerPackSize Kind = "INVALID_STICKERPACK_SIZE"
	KindDuplicateIdentifier    Kind = "DUPLICATE_IDENTIFIER"

	KindInvalidStickerPath    Kind = "INVALID_STICKER_PATH"
	KindInvalidAccessibility  Kind = "INVALID_STICKER_ACCESSIBILITY"
	KindInvalidEmoji          Kind = "INVALID_EMOJI"
	KindFileSize              Kind = "ERROR_FILE_SIZE"
	KindFileType              Kind = "ERROR_FILE_TYPE"
	KindStickerDimension      Kind = "ERROR_SIZE_STICKER"
	KindStickerType           Kind = "ERROR_STICKER_TYPE"
	KindStickerDuration       Kind = "ERROR_STICKER_DURATION"

	// KindAssetFetch is an I/O condition, not a content rule
	KindAssetFetch Kind = "ERROR_ASSET_FETCH"
)

var allKinds = []Kind{
	KindInvalidIdentifier, KindInvalidPublisher, KindInvalidStickerPackName,
	KindInvalidThumbnail, KindInvalidAndroidURL, KindInvalidIOSURL, KindInvalidWebsite,
	KindInvalidEmail, KindInvalidStickerPackSize, KindDuplicateIdentifier,
	KindInvalidStickerPath, KindInvalidAccessibility, KindInvalidEmoji, KindFileSize,
	KindFileType, KindStickerDimension, KindStickerType, KindStickerDuration,
	KindAssetFetch,
}

// Sentinel causes wrapped by *Error
var (
	ErrMalformedURL      = errors.New("malformed url")
	ErrUnsupportedScheme = errors.New("url scheme must be http or https")
	ErrDomainMismatch    = errors.New("url host does not match expected domain")
	ErrAssetNotFound     = errors.New("asset not found")
)

// IsContentRule reports whether k describes a content violation, as opposed
// to an asset I/O failure that may succeed on retry.
func (k Kind) IsContentRule() bool {
	return k != "" && k != KindAssetFetch
}

// ParseKind converts a persisted marker back into a Kind
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown validation kind: %q", s)
}

// Error is a rule violation for a pack or one of its stickers
type Error struct {
	Kind           Kind
	PackIdentifier string
	FileName       string
	Reason         string
	Err            error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.PackIdentifier != "" {
		fmt.Fprintf(&b, " [pack=%s", e.PackIdentifier)
		if e.FileName != "" {
			fmt.Fprintf(&b, " file=%s", e.FileName)
		}
		b.WriteString("]")
	} else if e.FileName != "" {
		fmt.Fprintf(&b, " [file=%s]", e.FileName)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or "" when err is not a validation error
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}

func packError(kind Kind, pack *StickerPack, format string, args ...any) *Error {
	return &Error{Kind: kind, PackIdentifier: pack.Identifier, Reason: fmt.Sprintf(format, args...)}
}

func stickerError(kind Kind, packIdentifier, fileName string, format string, args ...any) *Error {
	return &Error{Kind: kind, PackIdentifier: packIdentifier, FileName: fileName, Reason: fmt.Sprintf(format, args...)}
}
