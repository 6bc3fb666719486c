package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

const packColumns = `identifier, name, publisher, tray_image_file,
	android_play_store_link, ios_app_store_link, publisher_email, publisher_website,
	privacy_policy_website, license_agreement_website, image_data_version,
	avoid_cache, animated_sticker_pack`

// SavePack inserts or replaces a pack together with its sticker list
func (s *Store) SavePack(ctx context.Context, pack *validate.StickerPack) error {
	slog.Info("database_save_pack", "identifier", pack.Identifier, "stickers", len(pack.Stickers))

	err := s.withTx(ctx, func(ctx context.Context, tx dbtx) error {
		query := `INSERT INTO sticker_packs (` + packColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(identifier) DO UPDATE SET
				name = excluded.name,
				publisher = excluded.publisher,
				tray_image_file = excluded.tray_image_file,
				android_play_store_link = excluded.android_play_store_link,
				ios_app_store_link = excluded.ios_app_store_link,
				publisher_email = excluded.publisher_email,
				publisher_website = excluded.publisher_website,
				privacy_policy_website = excluded.privacy_policy_website,
				license_agreement_website = excluded.license_agreement_website,
				image_data_version = excluded.image_data_version,
				avoid_cache = excluded.avoid_cache,
				animated_sticker_pack = excluded.animated_sticker_pack,
				updated_at = CURRENT_TIMESTAMP`
		_, err := tx.ExecContext(ctx, query,
			pack.Identifier, pack.Name, pack.Publisher, pack.TrayImageFile,
			pack.AndroidPlayStoreLink, pack.IOSAppStoreLink, pack.PublisherEmail, pack.PublisherWebsite,
			pack.PrivacyPolicyWebsite, pack.LicenseAgreementWebsite, pack.ImageDataVersion,
			pack.AvoidCache, pack.AnimatedStickerPack)
		if err != nil {
			return fmt.Errorf("failed to upsert pack: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM stickers WHERE pack_identifier = ?`, pack.Identifier); err != nil {
			return fmt.Errorf("failed to clear stickers: %w", err)
		}

		for i, sticker := range pack.Stickers {
			if err := insertSticker(ctx, tx, pack.Identifier, i, sticker); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("database_save_pack_failed", "identifier", pack.Identifier, "error", err)
		return err
	}
	return nil
}

func insertSticker(ctx context.Context, tx dbtx, packIdentifier string, position int, sticker validate.Sticker) error {
	emojis := sticker.Emojis
	if emojis == nil {
		emojis = []string{}
	}
	encoded, err := json.Marshal(emojis)
	if err != nil {
		return fmt.Errorf("failed to encode emojis: %w", err)
	}

	var lastError sql.NullString
	if sticker.LastError != "" {
		lastError = sql.NullString{String: string(sticker.LastError), Valid: true}
	}

	query := `INSERT INTO stickers
		(pack_identifier, position, image_file, emojis, accessibility_text, size, is_valid, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		packIdentifier, position, sticker.ImageFileName, string(encoded),
		sticker.AccessibilityText, sticker.Size, !sticker.Quarantined, lastError)
	if err != nil {
		return fmt.Errorf("failed to insert sticker %s: %w", sticker.ImageFileName, err)
	}
	return nil
}

// GetPack loads a pack and all of its stickers, quarantined ones included
func (s *Store) GetPack(ctx context.Context, identifier string) (*validate.StickerPack, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+packColumns+` FROM sticker_packs WHERE identifier = ?`, identifier)
	pack, err := scanPack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPackNotFound, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pack: %w", err)
	}

	pack.Stickers, err = s.loadStickers(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return pack, nil
}

// ListPacks loads every pack ordered by identifier
func (s *Store) ListPacks(ctx context.Context) ([]validate.StickerPack, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+packColumns+` FROM sticker_packs ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("failed to query packs: %w", err)
	}

	var packs []validate.StickerPack
	for rows.Next() {
		pack, err := scanPack(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan pack: %w", err)
		}
		packs = append(packs, *pack)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Stickers are loaded after the pack cursor is closed; the pool holds one connection
	for i := range packs {
		packs[i].Stickers, err = s.loadStickers(ctx, packs[i].Identifier)
		if err != nil {
			return nil, err
		}
	}
	return packs, nil
}

// DeletePack removes a pack and, by cascade, its stickers
func (s *Store) DeletePack(ctx context.Context, identifier string) error {
	slog.Info("database_delete_pack", "identifier", identifier)

	res, err := s.db.ExecContext(ctx, `DELETE FROM sticker_packs WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("failed to delete pack: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", ErrPackNotFound, identifier))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPack(row scanner) (*validate.StickerPack, error) {
	var p validate.StickerPack
	err := row.Scan(&p.Identifier, &p.Name, &p.Publisher, &p.TrayImageFile,
		&p.AndroidPlayStoreLink, &p.IOSAppStoreLink, &p.PublisherEmail, &p.PublisherWebsite,
		&p.PrivacyPolicyWebsite, &p.LicenseAgreementWebsite, &p.ImageDataVersion,
		&p.AvoidCache, &p.AnimatedStickerPack)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
