package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// QuarantinedSticker is a sticker marked invalid, with its owning pack
type QuarantinedSticker struct {
	PackIdentifier string
	Sticker        validate.Sticker
}

const stickerColumns = `image_file, emojis, accessibility_text, size, is_valid, last_error`

func (s *Store) loadStickers(ctx context.Context, packIdentifier string) ([]validate.Sticker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stickerColumns+` FROM stickers WHERE pack_identifier = ? ORDER BY position`, packIdentifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query stickers: %w", err)
	}
	defer rows.Close()

	stickers := []validate.Sticker{}
	for rows.Next() {
		sticker, err := scanSticker(rows)
		if err != nil {
			return nil, err
		}
		stickers = append(stickers, *sticker)
	}
	return stickers, rows.Err()
}

func scanSticker(row scanner) (*validate.Sticker, error) {
	var (
		st        validate.Sticker
		emojis    string
		valid     bool
		lastError sql.NullString
	)
	if err := row.Scan(&st.ImageFileName, &emojis, &st.AccessibilityText, &st.Size, &valid, &lastError); err != nil {
		return nil, fmt.Errorf("failed to scan sticker: %w", err)
	}

	if err := json.Unmarshal([]byte(emojis), &st.Emojis); err != nil {
		return nil, fmt.Errorf("failed to decode emojis of %s: %w", st.ImageFileName, err)
	}
	st.Quarantined = !valid
	if lastError.Valid {
		kind, err := validate.ParseKind(lastError.String)
		if err != nil {
			return nil, fmt.Errorf("sticker %s: %w", st.ImageFileName, err)
		}
		st.LastError = kind
	}
	return &st, nil
}

// QuarantineSticker marks a sticker invalid and records the rule it failed
func (s *Store) QuarantineSticker(ctx context.Context, packIdentifier, fileName string, kind validate.Kind) error {
	slog.Info("database_quarantine_sticker", "identifier", packIdentifier, "file", fileName, "kind", kind)

	res, err := s.db.ExecContext(ctx,
		`UPDATE stickers SET is_valid = 0, last_error = ? WHERE pack_identifier = ? AND image_file = ?`,
		string(kind), packIdentifier, fileName)
	if err != nil {
		return fmt.Errorf("failed to quarantine sticker: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s/%s", ErrStickerNotFound, packIdentifier, fileName))
}

// ClearQuarantine marks a repaired sticker valid again
func (s *Store) ClearQuarantine(ctx context.Context, packIdentifier, fileName string) error {
	slog.Info("database_clear_quarantine", "identifier", packIdentifier, "file", fileName)

	res, err := s.db.ExecContext(ctx,
		`UPDATE stickers SET is_valid = 1, last_error = NULL WHERE pack_identifier = ? AND image_file = ?`,
		packIdentifier, fileName)
	if err != nil {
		return fmt.Errorf("failed to clear quarantine: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s/%s", ErrStickerNotFound, packIdentifier, fileName))
}

// DeleteSticker removes one sticker row from a pack
func (s *Store) DeleteSticker(ctx context.Context, packIdentifier, fileName string) error {
	slog.Info("database_delete_sticker", "identifier", packIdentifier, "file", fileName)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stickers WHERE pack_identifier = ? AND image_file = ?`, packIdentifier, fileName)
	if err != nil {
		return fmt.Errorf("failed to delete sticker: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s/%s", ErrStickerNotFound, packIdentifier, fileName))
}

// UpdateAccessibilityText replaces the accessibility text of one sticker
func (s *Store) UpdateAccessibilityText(ctx context.Context, packIdentifier, fileName, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stickers SET accessibility_text = ? WHERE pack_identifier = ? AND image_file = ?`,
		text, packIdentifier, fileName)
	if err != nil {
		return fmt.Errorf("failed to update accessibility text: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s/%s", ErrStickerNotFound, packIdentifier, fileName))
}

// ListQuarantined returns every quarantined sticker ordered by pack and position
func (s *Store) ListQuarantined(ctx context.Context) ([]QuarantinedSticker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pack_identifier, `+stickerColumns+` FROM stickers
		WHERE is_valid = 0 ORDER BY pack_identifier, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantined stickers: %w", err)
	}
	defer rows.Close()

	var result []QuarantinedSticker
	for rows.Next() {
		var packIdentifier string
		sticker, err := scanSticker(rowPrefix{rows, &packIdentifier})
		if err != nil {
			return nil, err
		}
		result = append(result, QuarantinedSticker{PackIdentifier: packIdentifier, Sticker: *sticker})
	}
	return result, rows.Err()
}

// rowPrefix scans a leading column before handing the rest to a sticker scan
type rowPrefix struct {
	rows  *sql.Rows
	first any
}

func (r rowPrefix) Scan(dest ...any) error {
	return r.rows.Scan(append([]any{r.first}, dest...)...)
}
