package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// Session accumulates the stickers of one pack being created. Files with the
// same content are only added once. A Session is safe for concurrent use and
// serves its own files as a validate.AssetFetcher until it is committed.
type Session struct {
	ID string

	mu       sync.Mutex
	stickers []validate.Sticker
	files    map[string][]byte
	hashes   map[string]string // content hash -> file name
}

// NewSession starts an empty creation session
func NewSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		files:  map[string][]byte{},
		hashes: map[string]string{},
	}
}

// Add appends a sticker unless a file with identical content is already in
// the session. It reports whether the sticker was added.
func (s *Session) Add(sticker validate.Sticker, data []byte) (bool, error) {
	if sticker.ImageFileName == "" {
		return false, fmt.Errorf("sticker file name is empty")
	}

	hash := imaging.HashImage(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.hashes[hash]; ok {
		slog.Debug("session_duplicate_sticker", "session", s.ID, "file", sticker.ImageFileName, "existing", existing)
		return false, nil
	}
	if _, ok := s.files[sticker.ImageFileName]; ok {
		return false, fmt.Errorf("file name %s is already used in this session", sticker.ImageFileName)
	}

	sticker.Size = int64(len(data))
	s.stickers = append(s.stickers, sticker)
	s.files[sticker.ImageFileName] = data
	s.hashes[hash] = sticker.ImageFileName
	return true, nil
}

// SetFile stores a non-sticker asset such as the tray image
func (s *Session) SetFile(fileName string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileName] = data
}

// Len returns the number of stickers added
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stickers)
}

// Stickers returns a copy of the sticker list in insertion order
func (s *Session) Stickers() []validate.Sticker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]validate.Sticker(nil), s.stickers...)
}

// Build returns meta with the session's stickers
func (s *Session) Build(meta validate.StickerPack) *validate.StickerPack {
	pack := meta
	pack.Stickers = s.Stickers()
	return &pack
}

// Fetch serves files held by the session; packIdentifier is ignored
func (s *Session) Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[fileName]
	if !ok {
		return nil, validate.NotFound(packIdentifier, fileName)
	}
	return data, nil
}

// Commit writes every file of the session into store under packIdentifier
func (s *Session) Commit(ctx context.Context, store assets.Store, packIdentifier string) error {
	s.mu.Lock()
	files := make(map[string][]byte, len(s.files))
	for name, data := range s.files {
		files[name] = data
	}
	s.mu.Unlock()

	for name, data := range files {
		if err := store.Put(ctx, packIdentifier, name, data); err != nil {
			return fmt.Errorf("failed to commit %s: %w", name, err)
		}
	}

	slog.Info("session_committed", "session", s.ID, "identifier", packIdentifier, "files", len(files))
	return nil
}
