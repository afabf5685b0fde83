package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/standardbeagle/medcat/internal/category"
	"github.com/standardbeagle/medcat/internal/logging"
	"github.com/standardbeagle/medcat/internal/types"
)

// ErrNoSnapshot is returned by Current-dependent calls before the first
// successful Reload
var ErrNoSnapshot = errors.New("catalog: no snapshot loaded")

// Source produces the raw build inputs, for example from the content
// directory on disk
type Source interface {
	Load(ctx context.Context) ([]types.ContentRecord, category.Grouping, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]types.ContentRecord, category.Grouping, error)

func (f SourceFunc) Load(ctx context.Context) ([]types.ContentRecord, category.Grouping, error) {
	return f(ctx)
}

// ReloadResult describes one Reload call
type ReloadResult struct {
	Swapped     bool
	Fingerprint uint64
	Records     int
	Warnings    int
	Duration    time.Duration
}

// Holder keeps the active snapshot. Readers call Current and never block;
// Reload builds a replacement off to the side and swaps it in only if the
// build succeeds.
type Holder struct {
	source Source
	opts   Options
	logger *zap.Logger

	current atomic.Pointer[Snapshot]
	reloads atomic.Int64
	mu      sync.Mutex // serializes Reload
}

func NewHolder(source Source, opts Options, logger *zap.Logger) *Holder {
	return &Holder{
		source: source,
		opts:   opts,
		logger: logging.OrNop(logger),
	}
}

// Current returns the active snapshot, nil before the first successful Reload
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Snapshot returns the active snapshot or ErrNoSnapshot
func (h *Holder) Snapshot() (*Snapshot, error) {
	if snap := h.current.Load(); snap != nil {
		return snap, nil
	}
	return nil, ErrNoSnapshot
}

// Reloads returns how many times a new snapshot was swapped in
func (h *Holder) Reloads() int64 {
	return h.reloads.Load()
}

// Reload loads the source and builds a new snapshot. On any error the
// active snapshot is left untouched. When the inputs hash to the active
// fingerprint the build is skipped.
func (h *Holder) Reload(ctx context.Context) (ReloadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	records, categories, err := h.source.Load(ctx)
	if err != nil {
		h.logger.Error("catalog load failed", zap.Error(err))
		return ReloadResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ReloadResult{}, err
	}

	fp, err := Fingerprint(records, categories)
	if err != nil {
		return ReloadResult{}, err
	}
	if old := h.current.Load(); old != nil && old.Fingerprint() == fp {
		h.logger.Debug("catalog unchanged, keeping snapshot",
			zap.String("fingerprint", old.FingerprintHex()))
		return ReloadResult{
			Fingerprint: fp,
			Records:     old.GetCount(),
			Warnings:    len(old.warnings),
			Duration:    time.Since(start),
		}, nil
	}

	snap, err := Build(records, categories, h.opts)
	if err != nil {
		h.logger.Error("catalog build failed, keeping previous snapshot", zap.Error(err))
		return ReloadResult{}, err
	}

	h.current.Store(snap)
	h.reloads.Add(1)

	for _, w := range snap.warnings {
		h.logger.Warn("dangling cross-reference",
			zap.String("source", w.SourceID.String()),
			zap.String("target", w.TargetID.String()),
			zap.String("label", w.Label))
	}

	res := ReloadResult{
		Swapped:     true,
		Fingerprint: fp,
		Records:     snap.GetCount(),
		Warnings:    len(snap.warnings),
		Duration:    time.Since(start),
	}
	h.logger.Info("catalog snapshot loaded",
		zap.Int("records", res.Records),
		zap.Int("categories", len(snap.Categories())),
		zap.Int("warnings", res.Warnings),
		zap.String("fingerprint", snap.FingerprintHex()),
		zap.Duration("duration", res.Duration))
	return res, nil
}
