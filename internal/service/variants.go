// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jknm/novice/internal/imaging"
	"github.com/jknm/novice/internal/metrics"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/storage"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
)

// VariantPipeline turns one uploaded original into its responsive variants
// and blur placeholder.
type VariantPipeline struct {
	db          *sql.DB
	queries     *store.Queries
	storage     storage.Storage
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// NewVariantPipeline creates a pipeline. concurrency bounds the number of
// encode tasks in flight; zero uses GOMAXPROCS.
func NewVariantPipeline(db *sql.DB, s storage.Storage, m *metrics.Metrics, logger *slog.Logger, concurrency int) *VariantPipeline {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &VariantPipeline{
		db:          db,
		queries:     store.New(db),
		storage:     s,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// pipelineOutput is everything a successful run persists.
type pipelineOutput struct {
	width, height int
	variants      []model.Variant
	srcsets       model.Srcsets
	blur          string
}

// Run processes a media record in the processing state. Variants are only
// linked to the record once every task has finished; any failure marks the
// record failed and is returned.
func (p *VariantPipeline) Run(ctx context.Context, mediaID int64) error {
	start := time.Now()

	m, err := p.queries.GetMediaByID(ctx, mediaID)
	if err != nil {
		return notFound(err, "media %d", mediaID)
	}
	if model.UploadStatus(m.UploadStatus) != model.UploadStatusProcessing {
		return fmt.Errorf("media %d is %s, not processing: %w", mediaID, m.UploadStatus, ErrInvalidState)
	}

	out, err := p.process(ctx, m)
	if errors.Is(err, imaging.ErrNotImage) {
		p.logger.Info("original is not an image, skipping variants", "category", "media", "media_id", mediaID)
		out, err = pipelineOutput{}, nil
	}
	if err == nil {
		err = p.persist(ctx, m.ID, out)
	}
	if err != nil {
		p.fail(ctx, m, err)
		p.metrics.ObservePipeline("failed", time.Since(start))
		return err
	}

	for _, v := range out.variants {
		p.metrics.VariantProduced(string(v.Format), int(v.SizeBytes))
	}
	p.metrics.ObservePipeline("completed", time.Since(start))
	p.logger.Info("media variants generated", "category", "media",
		"media_id", mediaID, "variants", len(out.variants), "duration", time.Since(start))
	return nil
}

func (p *VariantPipeline) process(ctx context.Context, m store.Medium) (pipelineOutput, error) {
	data, err := storage.ReadAll(ctx, p.storage, m.StorageKey)
	if err != nil {
		return pipelineOutput{}, fmt.Errorf("fetching original %s: %w", m.StorageKey, err)
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return pipelineOutput{}, err
	}
	bounds := img.Bounds()

	specs := imaging.PlanVariants(bounds.Dx())
	variants := make([]model.Variant, len(specs))
	var blur string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, spec := range specs {
		g.Go(func() (err error) {
			defer recoverTask(&err)
			v, err := p.produce(gctx, m.Uuid, img, spec)
			if err != nil {
				return err
			}
			variants[i] = v
			return nil
		})
	}
	g.Go(func() (err error) {
		defer recoverTask(&err)
		data, err := imaging.Blur(img)
		if err != nil {
			return err
		}
		if err := p.storage.Put(gctx, storage.BlurKey(m.Uuid), bytes.NewReader(data), int64(len(data)), model.MimeTypeJPEG); err != nil {
			return fmt.Errorf("uploading blur placeholder: %w", err)
		}
		blur = imaging.BlurDataURI(data)
		return nil
	})

	if err := g.Wait(); err != nil {
		return pipelineOutput{}, err
	}

	return pipelineOutput{
		width:    bounds.Dx(),
		height:   bounds.Dy(),
		variants: variants,
		srcsets:  imaging.BuildSrcsets(variants),
		blur:     blur,
	}, nil
}

// recoverTask converts a panic in an encode task into its error so the run
// fails the record instead of taking down the process.
func recoverTask(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("variant task panicked: %v", r)
	}
}

// produce resizes, encodes and uploads one variant. Keys depend only on
// (uuid, width, format) so a rerun overwrites the same objects.
func (p *VariantPipeline) produce(ctx context.Context, mediaUUID string, img image.Image, spec imaging.VariantSpec) (model.Variant, error) {
	if err := ctx.Err(); err != nil {
		return model.Variant{}, err
	}

	resized := imaging.Resize(img, spec.Width)
	data, err := imaging.Encode(resized, spec.Format)
	if err != nil {
		return model.Variant{}, fmt.Errorf("%dw %s: %w", spec.Width, spec.Format, err)
	}

	key := storage.VariantKey(mediaUUID, spec.Width, spec.Format)
	if err := p.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), spec.Format.MimeType()); err != nil {
		return model.Variant{}, fmt.Errorf("uploading %s: %w", key, err)
	}

	return model.Variant{
		Width:     resized.Bounds().Dx(),
		Height:    resized.Bounds().Dy(),
		Format:    spec.Format,
		URL:       p.storage.URL(key),
		Key:       key,
		SizeBytes: int64(len(data)),
	}, nil
}

// persist writes variants, srcsets, blur and the completed status in one transaction.
func (p *VariantPipeline) persist(ctx context.Context, mediaID int64, out pipelineOutput) error {
	return store.InTx(ctx, p.db, func(q *store.Queries) error {
		if err := q.DeleteMediaVariants(ctx, mediaID); err != nil {
			return fmt.Errorf("clearing old variants: %w", err)
		}
		for _, v := range out.variants {
			if err := q.CreateMediaVariant(ctx, store.CreateMediaVariantParams{
				MediaID:    mediaID,
				Width:      int64(v.Width),
				Height:     int64(v.Height),
				Format:     string(v.Format),
				Url:        v.URL,
				StorageKey: v.Key,
				SizeBytes:  v.SizeBytes,
			}); err != nil {
				return fmt.Errorf("saving variant: %w", err)
			}
		}

		params := store.CompleteMediaParams{
			ID:              mediaID,
			SrcsetAvif:      out.srcsets.AVIF,
			SrcsetJpeg:      out.srcsets.JPEG,
			Sizes:           out.srcsets.Sizes,
			BlurPlaceholder: out.blur,
			UpdatedAt:       util.UnixMilli(p.now()),
		}
		if out.width > 0 {
			params.Width = sql.NullInt64{Int64: int64(out.width), Valid: true}
			params.Height = sql.NullInt64{Int64: int64(out.height), Valid: true}
		}

		n, err := q.CompleteMedia(ctx, params)
		if err != nil {
			return fmt.Errorf("completing media: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("media %d left processing concurrently: %w", mediaID, ErrInvalidState)
		}
		return nil
	})
}

// fail marks the record failed. It runs detached from ctx so a cancelled or
// timed out job still records its outcome.
func (p *VariantPipeline) fail(ctx context.Context, m store.Medium, cause error) {
	p.logger.Error("media variant pipeline failed", "category", "media",
		"media_id", m.ID, "key", m.StorageKey, "error", cause)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	n, err := p.queries.TransitionMediaStatus(ctx, store.TransitionMediaStatusParams{
		ID:        m.ID,
		From:      string(model.UploadStatusProcessing),
		To:        string(model.UploadStatusFailed),
		UpdatedAt: util.UnixMilli(p.now()),
	})
	if err != nil {
		p.logger.Error("marking media failed", "category", "media", "media_id", m.ID, "error", err)
		return
	}
	if n == 0 {
		p.logger.Warn("media was no longer processing when marking it failed", "category", "media", "media_id", m.ID)
	}
}
