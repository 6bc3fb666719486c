package validate

// Action is what the user can do to repair a failed pack or sticker
type Action string

const (
	ActionNone             Action = "none"
	ActionRename           Action = "rename"
	ActionRefetchThumbnail Action = "refetch_thumbnail"
	ActionCleanURL         Action = "clean_url"
	ActionAddStickers      Action = "add_stickers"
	ActionResize           Action = "resize"
	ActionDelete           Action = "delete"
	ActionEditAccessText   Action = "edit_accessibility_text"
	ActionEditEmojis       Action = "edit_emojis"
	ActionRetry            Action = "retry"
)

var remedies = map[Kind]Action{
	KindInvalidIdentifier:      ActionRename,
	KindInvalidPublisher:       ActionRename,
	KindInvalidStickerPackName: ActionRename,
	KindDuplicateIdentifier:    ActionRename,
	KindInvalidThumbnail:       ActionRefetchThumbnail,
	KindInvalidAndroidURL:      ActionCleanURL,
	KindInvalidIOSURL:          ActionCleanURL,
	KindInvalidWebsite:         ActionCleanURL,
	KindInvalidEmail:           ActionCleanURL,
	KindInvalidStickerPackSize: ActionAddStickers,
	KindFileSize:               ActionResize,
	KindStickerDimension:       ActionResize,
	KindInvalidStickerPath:     ActionDelete,
	KindFileType:               ActionDelete,
	KindStickerType:            ActionDelete,
	KindStickerDuration:        ActionDelete,
	KindInvalidAccessibility:   ActionEditAccessText,
	KindInvalidEmoji:           ActionEditEmojis,
	KindAssetFetch:             ActionRetry,
}

// Remedy maps a failure kind to the repair action offered to the user
func Remedy(kind Kind) Action {
	if a, ok := remedies[kind]; ok {
		return a
	}
	return ActionNone
}
