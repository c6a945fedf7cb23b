// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jknm/novice/internal/cache"
	"github.com/jknm/novice/internal/document"
	"github.com/jknm/novice/internal/model"
	"github.com/jknm/novice/internal/seo"
	"github.com/jknm/novice/internal/store"
	"github.com/jknm/novice/internal/util"
	"github.com/jknm/novice/internal/webhook"
)

// ExcerptLength is the maximum number of runes in a generated excerpt.
const ExcerptLength = 280

// ArticleCacheTTL is how long a published article stays cached for anonymous readers.
const ArticleCacheTTL = 10 * time.Minute

// Notifier receives article lifecycle events after they commit.
// *webhook.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, eventType string, data any) error
}

// ArticleService manages the draft -> published -> archived/deleted lifecycle.
type ArticleService struct {
	db       *sql.DB
	queries  *store.Queries
	cache    *cache.TypedCache[Article]
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

// NewArticleService creates an article service. c may be nil to disable caching.
func NewArticleService(db *sql.DB, c cache.Cache, logger *slog.Logger) *ArticleService {
	s := &ArticleService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     time.Now,
	}
	if c != nil {
		s.cache = cache.NewTypedCache[Article](c, "article:", ArticleCacheTTL)
	}
	return s
}

// SetNotifier registers a receiver for publish, archive and delete events.
func (s *ArticleService) SetNotifier(n Notifier) {
	s.notifier = n
}

// PublishParams holds the inputs of PublishDraft.
type PublishParams struct {
	Content   json.RawMessage
	AuthorIDs []int64
	Thumbnail *model.Thumbnail
	// PublishedAt defaults to now.
	PublishedAt *time.Time
}

// parsedContent is a validated document with its derived fields.
type parsedContent struct {
	title    string
	json     string
	markdown string
	excerpt  string
}

func parseContent(raw []byte) (parsedContent, error) {
	doc, err := document.Parse(raw)
	if err != nil {
		return parsedContent{}, contentError(err)
	}
	title, err := document.ExtractTitle(doc)
	if err != nil {
		return parsedContent{}, contentError(err)
	}
	encoded, err := doc.Marshal()
	if err != nil {
		return parsedContent{}, fmt.Errorf("encoding content: %w", err)
	}
	markdown := document.ToMarkdown(doc)
	return parsedContent{
		title:    title,
		json:     string(encoded),
		markdown: markdown,
		excerpt:  document.Excerpt(markdown, ExcerptLength),
	}, nil
}

// CreateDraft inserts an empty draft whose slug is its id.
func (s *ArticleService) CreateDraft(ctx context.Context) (Article, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Article{}, err
	}

	doc := document.NewDefault(model.DefaultArticleTitle)
	encoded, err := doc.Marshal()
	if err != nil {
		return Article{}, fmt.Errorf("encoding default content: %w", err)
	}
	now := util.UnixMilli(s.now())

	var created store.Article
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		a, err := q.CreateArticle(ctx, store.CreateArticleParams{
			Title:           model.DefaultArticleTitle,
			Slug:            "tmp-" + uuid.NewString(),
			Status:          string(model.ArticleStatusDraft),
			ContentJson:     string(encoded),
			ContentMarkdown: document.ToMarkdown(doc),
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("creating draft: %w", err)
		}
		created, err = q.UpdateArticleSlug(ctx, a.ID, util.DraftSlug(a.ID))
		if err != nil {
			return fmt.Errorf("setting draft slug: %w", err)
		}
		return nil
	})
	if err != nil {
		return Article{}, err
	}

	s.logger.Info("draft created", "category", "article", "article_id", created.ID)
	return articleFromStore(created, nil), nil
}

// UpdateDraft replaces the content of a draft and re-derives its title.
// Slug and status are left untouched.
func (s *ArticleService) UpdateDraft(ctx context.Context, id int64, content json.RawMessage) error {
	if _, err := requireIdentity(ctx); err != nil {
		return err
	}

	parsed, err := parseContent(content)
	if err != nil {
		return err
	}

	n, err := s.queries.UpdateDraftContent(ctx, store.UpdateDraftContentParams{
		ID:              id,
		Title:           parsed.title,
		ContentJson:     parsed.json,
		ContentMarkdown: parsed.markdown,
		Excerpt:         parsed.excerpt,
		UpdatedAt:       util.UnixMilli(s.now()),
	})
	if err != nil {
		return fmt.Errorf("updating draft %d: %w", id, err)
	}
	if n == 0 {
		return s.draftMissing(ctx, s.queries, id)
	}
	return nil
}

// draftMissing explains why a draft-guarded write touched no rows.
func (s *ArticleService) draftMissing(ctx context.Context, q *store.Queries, id int64) error {
	a, err := q.GetArticleByID(ctx, id)
	if err != nil {
		return notFound(err, "article %d", id)
	}
	return fmt.Errorf("article %d is %s, not a draft: %w", id, a.Status, ErrInvalidState)
}

// PublishDraft validates the content, publishes the draft under its final
// slug and replaces the author links with AuthorIDs in order, all in one
// transaction.
func (s *ArticleService) PublishDraft(ctx context.Context, id int64, p PublishParams) (Article, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Article{}, err
	}

	parsed, err := parseContent(p.Content)
	if err != nil {
		return Article{}, err
	}
	if err := checkDistinct(p.AuthorIDs); err != nil {
		return Article{}, err
	}

	publishedAt := s.now()
	if p.PublishedAt != nil {
		publishedAt = *p.PublishedAt
	}
	publishedAt = publishedAt.UTC()
	slug := util.SlugifyTitle(parsed.title, id)

	var thumbID sql.NullInt64
	var thumbCrop sql.NullString
	if p.Thumbnail != nil {
		thumbID = sql.NullInt64{Int64: p.Thumbnail.MediaID, Valid: true}
		if p.Thumbnail.Crop != nil {
			crop, err := json.Marshal(p.Thumbnail.Crop)
			if err != nil {
				return Article{}, fmt.Errorf("encoding thumbnail crop: %w", err)
			}
			thumbCrop = sql.NullString{String: string(crop), Valid: true}
		}
	}

	var published store.Article
	var links []store.ArticleAuthorRow
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		current, err := q.GetArticleByID(ctx, id)
		if err != nil {
			return notFound(err, "article %d", id)
		}
		if !model.ArticleStatus(current.Status).CanTransitionTo(model.ArticleStatusPublished) {
			return fmt.Errorf("article %d is %s, not a draft: %w", id, current.Status, ErrInvalidState)
		}

		if thumbID.Valid {
			if _, err := q.GetMediaByID(ctx, thumbID.Int64); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("thumbnail media %d does not exist: %w", thumbID.Int64, ErrInvalidInput)
				}
				return err
			}
		}

		n, err := q.PublishArticle(ctx, store.PublishArticleParams{
			ID:               id,
			Title:            parsed.title,
			Slug:             slug,
			ContentJson:      parsed.json,
			ContentMarkdown:  parsed.markdown,
			Excerpt:          parsed.excerpt,
			ThumbnailMediaID: thumbID,
			ThumbnailCrop:    thumbCrop,
			PublishedAt:      util.UnixMilli(publishedAt),
			PublishedYear:    int64(publishedAt.Year()),
			UpdatedAt:        util.UnixMilli(s.now()),
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return fmt.Errorf("slug %q already taken: %w", slug, ErrConflict)
			}
			return fmt.Errorf("publishing article %d: %w", id, err)
		}
		if n == 0 {
			return s.draftMissing(ctx, q, id)
		}

		if err := q.DeleteArticleAuthors(ctx, id); err != nil {
			return fmt.Errorf("clearing authors: %w", err)
		}
		for i, authorID := range p.AuthorIDs {
			if _, err := q.GetAuthorByID(ctx, authorID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("author %d does not exist: %w", authorID, ErrInvalidInput)
				}
				return err
			}
			if err := q.InsertArticleAuthor(ctx, store.ArticleAuthor{
				ArticleID: id,
				AuthorID:  authorID,
				Order:     int64(i),
			}); err != nil {
				return fmt.Errorf("linking author %d: %w", authorID, err)
			}
		}

		if published, err = q.GetArticleByID(ctx, id); err != nil {
			return err
		}
		links, err = q.ListAuthorsForArticle(ctx, id)
		return err
	})
	if err != nil {
		return Article{}, err
	}

	s.invalidate(ctx, published.Slug)
	s.logger.Info("article published", "category", "article", "article_id", id, "slug", published.Slug)
	out := articleFromStore(published, links)
	s.notify(ctx, webhook.EventArticlePublished, out)
	return out, nil
}

func checkDistinct(ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("author %d listed twice: %w", id, ErrInvalidInput)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CopyPublishedIntoDraft creates a new draft from a published article,
// copying its content together with its author and media links. The source
// article is not modified.
func (s *ArticleService) CopyPublishedIntoDraft(ctx context.Context, id int64) (Article, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Article{}, err
	}

	now := util.UnixMilli(s.now())
	var draft store.Article
	var links []store.ArticleAuthorRow
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		src, err := q.GetArticleByID(ctx, id)
		if err != nil {
			return notFound(err, "article %d", id)
		}
		if model.ArticleStatus(src.Status) != model.ArticleStatusPublished {
			return fmt.Errorf("article %d is %s, not published: %w", id, src.Status, ErrInvalidState)
		}

		created, err := q.CreateArticle(ctx, store.CreateArticleParams{
			Title:           src.Title,
			Slug:            "tmp-" + uuid.NewString(),
			Status:          string(model.ArticleStatusDraft),
			ContentJson:     src.ContentJson,
			ContentMarkdown: src.ContentMarkdown,
			Excerpt:         src.Excerpt,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return fmt.Errorf("creating copy: %w", err)
		}
		if draft, err = q.UpdateArticleSlug(ctx, created.ID, util.DraftSlug(created.ID)); err != nil {
			return fmt.Errorf("setting draft slug: %w", err)
		}
		if err := q.CopyArticleAuthors(ctx, draft.ID, src.ID); err != nil {
			return fmt.Errorf("copying authors: %w", err)
		}
		if err := q.CopyArticleMedia(ctx, draft.ID, src.ID); err != nil {
			return fmt.Errorf("copying media links: %w", err)
		}
		links, err = q.ListAuthorsForArticle(ctx, draft.ID)
		return err
	})
	if err != nil {
		return Article{}, err
	}

	s.logger.Info("published article copied into draft", "category", "article",
		"source_id", id, "article_id", draft.ID)
	return articleFromStore(draft, links), nil
}

// GetBySlug returns the article with slug. Anonymous callers only ever see
// published articles; anything else is reported as ErrNotFound.
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (Article, error) {
	if !util.IsValidSlug(slug) {
		return Article{}, fmt.Errorf("article %q: %w", slug, ErrNotFound)
	}
	if !isAuthenticated(ctx) {
		if s.cache == nil {
			return s.loadBySlug(ctx, slug, false)
		}
		view, err := s.cache.GetOrSet(ctx, slug, func() (*Article, error) {
			a, err := s.loadBySlug(ctx, slug, false)
			return &a, err
		})
		if err != nil {
			return Article{}, err
		}
		return *view, nil
	}

	view, err := s.loadBySlug(ctx, slug, true)
	if err != nil {
		return Article{}, err
	}
	if view.Status.IsPublic() && s.cache != nil {
		if err := s.cache.Set(ctx, slug, &view); err != nil {
			s.logger.Warn("caching article failed", "category", "article", "slug", slug, "error", err)
		}
	}
	return view, nil
}

func (s *ArticleService) loadBySlug(ctx context.Context, slug string, includeHidden bool) (Article, error) {
	a, err := s.queries.GetArticleBySlug(ctx, slug)
	if err != nil {
		return Article{}, notFound(err, "article %q", slug)
	}
	if !includeHidden && !model.ArticleStatus(a.Status).IsPublic() {
		return Article{}, fmt.Errorf("article %q: %w", slug, ErrNotFound)
	}

	links, err := s.queries.ListAuthorsForArticle(ctx, a.ID)
	if err != nil {
		return Article{}, fmt.Errorf("loading authors: %w", err)
	}
	return articleFromStore(a, links), nil
}

// ListByStatus pages through articles of one status, most recently updated first.
func (s *ArticleService) ListByStatus(ctx context.Context, status model.ArticleStatus, limit, offset int) ([]Article, int64, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, 0, err
	}
	if !status.Valid() {
		return nil, 0, fmt.Errorf("unknown status %q: %w", status, ErrInvalidInput)
	}
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.queries.ListArticlesByStatus(ctx, store.ListArticlesByStatusParams{
		Status: string(status),
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing %s articles: %w", status, err)
	}
	total, err := s.queries.CountArticlesByStatus(ctx, string(status))
	if err != nil {
		return nil, 0, fmt.Errorf("counting %s articles: %w", status, err)
	}

	articles, err := withAuthors(ctx, s.queries, rows)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// ListForAuthor returns the articles credited to an author, newest first.
// Anonymous callers only see published articles.
func (s *ArticleService) ListForAuthor(ctx context.Context, authorID int64) ([]Article, error) {
	if _, err := s.queries.GetAuthorByID(ctx, authorID); err != nil {
		return nil, notFound(err, "author %d", authorID)
	}

	rows, err := s.queries.ListArticlesForAuthor(ctx, store.ListArticlesForAuthorParams{
		AuthorID:      authorID,
		PublishedOnly: !isAuthenticated(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("listing articles of author %d: %w", authorID, err)
	}
	return withAuthors(ctx, s.queries, rows)
}

// SitemapEntries lists published articles for the public sitemap, newest first.
func (s *ArticleService) SitemapEntries(ctx context.Context) ([]seo.SitemapArticle, error) {
	rows, err := s.queries.ListPublishedSlugs(ctx, seo.MaxURLs)
	if err != nil {
		return nil, fmt.Errorf("listing published slugs: %w", err)
	}
	out := make([]seo.SitemapArticle, len(rows))
	for i, r := range rows {
		out[i] = seo.SitemapArticle{
			Slug:          r.Slug,
			UpdatedAt:     util.TimeFromMilli(r.UpdatedAt),
			PublishedYear: int(r.PublishedYear.Int64),
		}
	}
	return out, nil
}

// Archive moves a published article to archived.
func (s *ArticleService) Archive(ctx context.Context, id int64) (Article, error) {
	return s.transition(ctx, id, model.ArticleStatusArchived)
}

// Delete soft-deletes a published or archived article.
func (s *ArticleService) Delete(ctx context.Context, id int64) (Article, error) {
	return s.transition(ctx, id, model.ArticleStatusDeleted)
}

func (s *ArticleService) transition(ctx context.Context, id int64, to model.ArticleStatus) (Article, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return Article{}, err
	}

	now := s.now()
	var updated store.Article
	var links []store.ArticleAuthorRow
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		current, err := q.GetArticleByID(ctx, id)
		if err != nil {
			return notFound(err, "article %d", id)
		}
		from := model.ArticleStatus(current.Status)
		if !from.CanTransitionTo(to) {
			return fmt.Errorf("article %d cannot move from %s to %s: %w", id, from, to, ErrInvalidState)
		}

		params := store.TransitionArticleStatusParams{
			ID:        id,
			From:      string(from),
			To:        string(to),
			UpdatedAt: util.UnixMilli(now),
		}
		switch to {
		case model.ArticleStatusArchived:
			params.ArchivedAt = util.NullUnixMilli(&now)
		case model.ArticleStatusDeleted:
			params.DeletedAt = util.NullUnixMilli(&now)
		}

		n, err := q.TransitionArticleStatus(ctx, params)
		if err != nil {
			return fmt.Errorf("moving article %d to %s: %w", id, to, err)
		}
		if n == 0 {
			return fmt.Errorf("article %d changed concurrently: %w", id, ErrInvalidState)
		}
		if updated, err = q.GetArticleByID(ctx, id); err != nil {
			return err
		}
		links, err = q.ListAuthorsForArticle(ctx, id)
		return err
	})
	if err != nil {
		return Article{}, err
	}

	s.invalidate(ctx, updated.Slug)
	s.logger.Info("article status changed", "category", "article", "article_id", id, "status", to)
	out := articleFromStore(updated, links)
	event := webhook.EventArticleArchived
	if to == model.ArticleStatusDeleted {
		event = webhook.EventArticleDeleted
	}
	s.notify(ctx, event, out)
	return out, nil
}

// RecordView atomically increments the view counter of a published article.
func (s *ArticleService) RecordView(ctx context.Context, slug string) (int64, error) {
	if !util.IsValidSlug(slug) {
		return 0, fmt.Errorf("published article %q: %w", slug, ErrNotFound)
	}
	count, err := s.queries.IncrementArticleViews(ctx, slug)
	if err != nil {
		return 0, notFound(err, "published article %q", slug)
	}
	return count, nil
}

// AddAuthor links an author to a draft. A nil order appends after the last author.
func (s *ArticleService) AddAuthor(ctx context.Context, articleID, authorID int64, order *int64) error {
	if _, err := requireIdentity(ctx); err != nil {
		return err
	}
	if order != nil && *order < 0 {
		return fmt.Errorf("order must not be negative: %w", ErrInvalidInput)
	}

	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if err := requireDraft(ctx, q, articleID); err != nil {
			return err
		}
		if _, err := q.GetAuthorByID(ctx, authorID); err != nil {
			return notFound(err, "author %d", authorID)
		}

		pos := int64(0)
		if order != nil {
			pos = *order
		} else {
			next, err := q.NextArticleAuthorOrder(ctx, articleID)
			if err != nil {
				return err
			}
			pos = next
		}

		err := q.InsertArticleAuthor(ctx, store.ArticleAuthor{ArticleID: articleID, AuthorID: authorID, Order: pos})
		if store.IsUniqueViolation(err) {
			return fmt.Errorf("author %d or position %d already used on article %d: %w", authorID, pos, articleID, ErrConflict)
		}
		return err
	})
}

// RemoveAuthor unlinks an author from a draft.
func (s *ArticleService) RemoveAuthor(ctx context.Context, articleID, authorID int64) error {
	if _, err := requireIdentity(ctx); err != nil {
		return err
	}

	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if err := requireDraft(ctx, q, articleID); err != nil {
			return err
		}
		n, err := q.DeleteArticleAuthor(ctx, articleID, authorID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("author %d is not linked to article %d: %w", authorID, articleID, ErrNotFound)
		}
		return nil
	})
}

// SetAuthorOrder moves an author of a draft to position order. If another
// author holds that position the two swap places.
func (s *ArticleService) SetAuthorOrder(ctx context.Context, articleID, authorID, order int64) error {
	if _, err := requireIdentity(ctx); err != nil {
		return err
	}
	if order < 0 {
		return fmt.Errorf("order must not be negative: %w", ErrInvalidInput)
	}

	return store.InTx(ctx, s.db, func(q *store.Queries) error {
		if err := requireDraft(ctx, q, articleID); err != nil {
			return err
		}
		link, err := q.GetArticleAuthor(ctx, articleID, authorID)
		if err != nil {
			return notFound(err, "author %d on article %d", authorID, articleID)
		}
		if link.Order == order {
			return nil
		}

		holder, err := q.GetArticleAuthorByOrder(ctx, articleID, order)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = q.UpdateArticleAuthorOrder(ctx, store.ArticleAuthor{ArticleID: articleID, AuthorID: authorID, Order: order})
			return err
		case err != nil:
			return err
		}

		// Park the moving author on a free slot so the unique index holds mid-swap.
		if _, err := q.UpdateArticleAuthorOrder(ctx, store.ArticleAuthor{ArticleID: articleID, AuthorID: authorID, Order: -1}); err != nil {
			return err
		}
		if _, err := q.UpdateArticleAuthorOrder(ctx, store.ArticleAuthor{ArticleID: articleID, AuthorID: holder.AuthorID, Order: link.Order}); err != nil {
			return err
		}
		_, err = q.UpdateArticleAuthorOrder(ctx, store.ArticleAuthor{ArticleID: articleID, AuthorID: authorID, Order: order})
		return err
	})
}

func requireDraft(ctx context.Context, q *store.Queries, id int64) error {
	a, err := q.GetArticleByID(ctx, id)
	if err != nil {
		return notFound(err, "article %d", id)
	}
	if model.ArticleStatus(a.Status) != model.ArticleStatusDraft {
		return fmt.Errorf("article %d is %s, not a draft: %w", id, a.Status, ErrInvalidState)
	}
	return nil
}

// Authors returns the ordered author list of an article.
func (s *ArticleService) Authors(ctx context.Context, articleID int64) ([]ArticleAuthor, error) {
	if _, err := s.queries.GetArticleByID(ctx, articleID); err != nil {
		return nil, notFound(err, "article %d", articleID)
	}
	rows, err := s.queries.ListAuthorsForArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	out := make([]ArticleAuthor, 0, len(rows))
	for _, r := range rows {
		out = append(out, ArticleAuthor{Author: authorFromStore(r.Author), Order: r.Order})
	}
	return out, nil
}

func (s *ArticleService) invalidate(ctx context.Context, slug string) {
	if s.cache == nil || slug == "" {
		return
	}
	if err := s.cache.Delete(ctx, slug); err != nil {
		s.logger.Warn("invalidating cached article failed", "category", "article", "slug", slug, "error", err)
	}
}

// notify runs after commit; a failed notification never fails the operation.
func (s *ArticleService) notify(ctx context.Context, event string, a Article) {
	if s.notifier == nil {
		return
	}
	data := webhook.ArticleEventData{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Status:      string(a.Status),
		PublishedAt: a.PublishedAt,
	}
	if err := s.notifier.Notify(ctx, event, data); err != nil {
		s.logger.Warn("article notification failed", "category", "article", "article_id", a.ID, "event", event, "error", err)
	}
}

// PurgeCache drops every cached article.
func (s *ArticleService) PurgeCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Purge(ctx)
}

// withAuthors attaches ordered author lists to a page of articles with one query.
func withAuthors(ctx context.Context, q *store.Queries, rows []store.Article) ([]Article, error) {
	ids := make([]int64, len(rows))
	for i, a := range rows {
		ids[i] = a.ID
	}
	links, err := q.ListAuthorsForArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading authors: %w", err)
	}
	byArticle := make(map[int64][]store.ArticleAuthorRow, len(rows))
	for _, l := range links {
		byArticle[l.ArticleID] = append(byArticle[l.ArticleID], l)
	}

	out := make([]Article, len(rows))
	for i, a := range rows {
		out[i] = articleFromStore(a, byArticle[a.ID])
	}
	return out, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
