// Package ingest runs sticker packs through validation and applies the
// caller's policy for failures before persisting them.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/assets"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// PackStore is the persistence used by Service
type PackStore interface {
	SavePack(ctx context.Context, pack *validate.StickerPack) error
	ListPacks(ctx context.Context) ([]validate.StickerPack, error)
	QuarantineSticker(ctx context.Context, packIdentifier, fileName string, kind validate.Kind) error
}

// Service validates packs on a bounded worker pool. Ingested assets are
// copied into the managed asset store, which the list-fetch path reads from.
type Service struct {
	limits  validate.Limits
	decoder validate.ImageDecoder
	store   PackStore
	assets  assets.Store
	workers int
}

// NewService creates a Service; workers <= 0 means one per CPU
func NewService(limits validate.Limits, decoder validate.ImageDecoder, store PackStore, assetStore assets.Store, workers int) *Service {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Service{
		limits:  limits,
		decoder: decoder,
		store:   store,
		assets:  assetStore,
		workers: workers,
	}
}

// candidate is a pack after its stickers have been judged
type candidate struct {
	pack   validate.StickerPack
	report *Report
	files  map[string][]byte // asset bytes of kept stickers and the tray
}

// Check validates packs read from source without persisting anything
func (s *Service) Check(ctx context.Context, source validate.AssetFetcher, packs []validate.StickerPack) ([]*Report, error) {
	results, err := s.evaluateAll(ctx, source, packs, PolicyDropSticker)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, len(results))
	for i, c := range results {
		reports[i] = c.report
	}
	return reports, nil
}

// Ingest validates packs read from source and persists what survives the
// policy. Pack-level failures drop the pack. Sticker content failures are
// removed (PolicyDropSticker) or kept and marked invalid (PolicyQuarantine).
// Sticker fetch failures are reported as retryable and never quarantined.
// A pack left with no stickers is dropped.
func (s *Service) Ingest(ctx context.Context, source validate.AssetFetcher, packs []validate.StickerPack, policy Policy) ([]*Report, error) {
	slog.Info("ingest_start", "packs", len(packs), "policy", policy, "workers", s.workers)

	results, err := s.evaluateAll(ctx, source, packs, policy)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, len(results))
	for i, c := range results {
		reports[i] = c.report
		if c.report.Dropped {
			continue
		}
		if err := s.persist(ctx, c); err != nil {
			return reports, err
		}
	}

	sum := Summarize(reports)
	slog.Info("ingest_complete", "packs", sum.Packs, "valid", sum.Valid, "dropped", sum.Dropped,
		"failures", sum.Failures, "retryable", sum.Retryable, "quarantined", sum.Quarantined)
	return reports, nil
}

func (s *Service) persist(ctx context.Context, c *candidate) error {
	for name, data := range c.files {
		if err := s.assets.Put(ctx, c.pack.Identifier, name, data); err != nil {
			return fmt.Errorf("failed to store asset %s/%s: %w", c.pack.Identifier, name, err)
		}
	}
	if err := s.store.SavePack(ctx, &c.pack); err != nil {
		return fmt.Errorf("failed to save pack %s: %w", c.pack.Identifier, err)
	}
	c.report.Persisted = true
	slog.Info("pack_persisted", "identifier", c.pack.Identifier, "stickers", len(c.pack.Stickers),
		"quarantined", c.report.Quarantined)
	return nil
}

func (s *Service) evaluateAll(ctx context.Context, source validate.AssetFetcher, packs []validate.StickerPack, policy Policy) ([]*candidate, error) {
	results := make([]*candidate, len(packs))

	seen := make(map[string]bool, len(packs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range packs {
		pack := packs[i]
		if seen[pack.Identifier] {
			results[i] = &candidate{pack: pack, report: &Report{
				Identifier: pack.Identifier,
				Name:       pack.Name,
				PackErr: &validate.Error{
					Kind:           validate.KindDuplicateIdentifier,
					PackIdentifier: pack.Identifier,
					Reason:         "identifier is used by an earlier pack in the batch",
				},
				Dropped: true,
			}}
			continue
		}
		seen[pack.Identifier] = true

		g.Go(func() error {
			c, err := s.evaluate(gctx, source, pack, policy)
			if err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluate judges one pack. The only error it returns is context cancellation;
// validation outcomes are recorded in the report.
func (s *Service) evaluate(ctx context.Context, source validate.AssetFetcher, pack validate.StickerPack, policy Policy) (*candidate, error) {
	rep := &Report{Identifier: pack.Identifier, Name: pack.Name}
	c := &candidate{report: rep, files: map[string][]byte{}}

	// The tray bytes read while validating are the ones persisted
	tray := &trayRecorder{AssetFetcher: source, fileName: pack.TrayImageFile}
	validator := validate.NewPackValidator(s.limits, tray, s.decoder)

	if err := validator.VerifyMetadata(ctx, &pack); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		rep.PackErr = err
		rep.Dropped = true
		slog.Warn("pack_rejected", "identifier", pack.Identifier, "kind", validate.KindOf(err), "error", err)
		c.pack = pack
		return c, nil
	}
	if tray.data == nil {
		rep.PackErr = &validate.Error{
			Kind:           validate.KindAssetFetch,
			PackIdentifier: pack.Identifier,
			FileName:       pack.TrayImageFile,
			Reason:         "tray image was not read",
		}
		rep.Dropped = true
		c.pack = pack
		return c, nil
	}
	c.files[pack.TrayImageFile] = tray.data

	kept := make([]validate.Sticker, 0, len(pack.Stickers))
	for _, sticker := range pack.Stickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := s.checkSticker(ctx, validator.Stickers(), source, &pack, &sticker)
		switch {
		case err == nil:
			kept = append(kept, sticker)
			c.files[sticker.ImageFileName] = data
		case validate.IsAssetFetch(err):
			rep.Retryable = append(rep.Retryable, validate.StickerFailure{FileName: sticker.ImageFileName, Err: err})
			slog.Warn("sticker_fetch_failed", "identifier", pack.Identifier, "file", sticker.ImageFileName, "error", err)
		default:
			rep.Failures = append(rep.Failures, validate.StickerFailure{FileName: sticker.ImageFileName, Err: err})
			// A quarantined row is only repairable when its file is stored too
			if policy == PolicyQuarantine && data != nil {
				sticker.Quarantined = true
				sticker.LastError = validate.KindOf(err)
				kept = append(kept, sticker)
				rep.Quarantined++
				c.files[sticker.ImageFileName] = data
			}
		}
	}

	pack.Stickers = kept
	c.pack = pack
	rep.Kept = len(kept) - rep.Quarantined

	if len(kept) == 0 {
		rep.Dropped = true
		slog.Warn("pack_dropped", "identifier", pack.Identifier, "reason", "no stickers left")
	}
	return c, nil
}

// checkSticker runs the sticker rules, fetching the asset once. It returns
// the fetched bytes whenever the fetch succeeded, also for stickers that
// failed a metadata rule, so they can be kept for repair.
func (s *Service) checkSticker(ctx context.Context, v *validate.StickerValidator, source validate.AssetFetcher, pack *validate.StickerPack, sticker *validate.Sticker) ([]byte, error) {
	sticker.Quarantined = false
	sticker.LastError = ""

	metaErr := v.VerifyMetadata(pack.Identifier, *sticker, pack.AnimatedStickerPack)
	if sticker.ImageFileName == "" {
		return nil, metaErr
	}

	data, err := source.Fetch(ctx, pack.Identifier, sticker.ImageFileName)
	if err != nil {
		if metaErr != nil {
			return nil, metaErr
		}
		return nil, &validate.Error{
			Kind:           validate.KindAssetFetch,
			PackIdentifier: pack.Identifier,
			FileName:       sticker.ImageFileName,
			Reason:         "cannot read sticker file",
			Err:            err,
		}
	}
	sticker.Size = int64(len(data))

	if metaErr != nil {
		return data, metaErr
	}
	return data, v.VerifyData(pack.Identifier, *sticker, data, pack.AnimatedStickerPack)
}

// trayRecorder keeps the bytes of the tray image read through it
type trayRecorder struct {
	validate.AssetFetcher
	fileName string
	data     []byte
}

func (r *trayRecorder) Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error) {
	data, err := r.AssetFetcher.Fetch(ctx, packIdentifier, fileName)
	if err == nil && fileName == r.fileName {
		r.data = data
	}
	return data, err
}

// FetchValid is the list-fetch path. It loads every stored pack, ignores
// quarantined stickers, re-validates the rest against the managed asset
// store and quarantines stickers that now fail a content rule. Only packs
// that pass are returned; the reports cover every stored pack.
func (s *Service) FetchValid(ctx context.Context) ([]validate.StickerPack, []*Report, error) {
	stored, err := s.store.ListPacks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list packs: %w", err)
	}

	validator := validate.NewPackValidator(s.limits, s.assets, s.decoder)
	reports := make([]*Report, len(stored))
	valid := make([]*validate.StickerPack, len(stored))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range stored {
		g.Go(func() error {
			pack, rep, err := s.revalidate(gctx, validator, stored[i])
			if err != nil {
				return err
			}
			reports[i], valid[i] = rep, pack
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var packs []validate.StickerPack
	for _, p := range valid {
		if p != nil {
			packs = append(packs, *p)
		}
	}

	slog.Info("fetch_valid_complete", "stored", len(stored), "valid", len(packs))
	return packs, reports, nil
}

func (s *Service) revalidate(ctx context.Context, validator *validate.PackValidator, pack validate.StickerPack) (*validate.StickerPack, *Report, error) {
	rep := &Report{Identifier: pack.Identifier, Name: pack.Name}
	pack.Stickers = pack.ActiveStickers()

	if err := validator.VerifyMetadata(ctx, &pack); err != nil {
		rep.PackErr = err
		rep.Dropped = true
		return nil, rep, nil
	}

	kept := make([]validate.Sticker, 0, len(pack.Stickers))
	for _, sticker := range pack.Stickers {
		err := validator.Stickers().Verify(ctx, pack.Identifier, sticker, pack.AnimatedStickerPack)
		switch {
		case err == nil:
			kept = append(kept, sticker)
		case validate.IsAssetFetch(err):
			rep.Retryable = append(rep.Retryable, validate.StickerFailure{FileName: sticker.ImageFileName, Err: err})
		default:
			rep.Failures = append(rep.Failures, validate.StickerFailure{FileName: sticker.ImageFileName, Err: err})
			if sticker.ImageFileName != "" {
				if qerr := s.store.QuarantineSticker(ctx, pack.Identifier, sticker.ImageFileName, validate.KindOf(err)); qerr != nil {
					return nil, nil, qerr
				}
				rep.Quarantined++
			}
		}
	}

	pack.Stickers = kept
	rep.Kept = len(kept)
	if err := validator.VerifyStickerCount(&pack); err != nil {
		rep.PackErr = err
		rep.Dropped = true
		return nil, rep, nil
	}
	return &pack, rep, nil
}
