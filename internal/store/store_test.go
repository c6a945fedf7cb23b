// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "novice-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func nowMilli() int64 {
	return time.Now().UTC().UnixMilli()
}

func createDraft(t *testing.T, q *Queries, markdown string) Article {
	t.Helper()
	ctx := context.Background()
	now := nowMilli()

	a, err := q.CreateArticle(ctx, CreateArticleParams{
		Title:           "Neimenovana novica",
		Slug:            "tmp-" + strconv.FormatInt(time.Now().UnixNano(), 36),
		Status:          "draft",
		ContentJson:     `[]`,
		ContentMarkdown: markdown,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	a, err = q.UpdateArticleSlug(ctx, a.ID, strconv.FormatInt(a.ID, 10))
	if err != nil {
		t.Fatalf("UpdateArticleSlug: %v", err)
	}
	return a
}

func publish(t *testing.T, q *Queries, id int64, slug string, at time.Time) {
	t.Helper()
	current, err := q.GetArticleByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetArticleByID: %v", err)
	}
	n, err := q.PublishArticle(context.Background(), PublishArticleParams{
		ID:              id,
		Title:           slug,
		Slug:            slug,
		ContentJson:     `[]`,
		ContentMarkdown: current.ContentMarkdown,
		PublishedAt:     at.UnixMilli(),
		PublishedYear:   int64(at.Year()),
		UpdatedAt:       nowMilli(),
	})
	if err != nil {
		t.Fatalf("PublishArticle: %v", err)
	}
	if n != 1 {
		t.Fatalf("PublishArticle affected %d rows, want 1", n)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn: %v", err)
		}
		var on int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on); err != nil {
			t.Fatalf("PRAGMA: %v", err)
		}
		_ = conn.Close()
		if on != 1 {
			t.Fatalf("foreign_keys = %d on connection %d", on, i)
		}
	}
}

func TestArticleDraftGuard(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "")

	if a.Slug != strconv.FormatInt(a.ID, 10) {
		t.Errorf("Slug = %q, want id", a.Slug)
	}

	n, err := q.UpdateDraftContent(ctx, UpdateDraftContentParams{ID: a.ID, Title: "Novo", ContentJson: "[]", UpdatedAt: nowMilli()})
	if err != nil || n != 1 {
		t.Fatalf("UpdateDraftContent on draft: n=%d err=%v", n, err)
	}

	publish(t, q, a.ID, "novo-"+a.Slug, time.Now())

	n, err = q.UpdateDraftContent(ctx, UpdateDraftContentParams{ID: a.ID, Title: "Spet", ContentJson: "[]", UpdatedAt: nowMilli()})
	if err != nil {
		t.Fatalf("UpdateDraftContent: %v", err)
	}
	if n != 0 {
		t.Errorf("UpdateDraftContent on published affected %d rows", n)
	}

	got, err := q.GetArticleByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetArticleByID: %v", err)
	}
	if got.Title != "novo-"+a.Slug || got.Status != "published" {
		t.Errorf("article mutated: %+v", got)
	}
	if !got.PublishedYear.Valid || got.PublishedYear.Int64 != int64(time.Now().Year()) {
		t.Errorf("PublishedYear = %+v", got.PublishedYear)
	}
}

func TestTransitionArticleStatus(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "")
	publish(t, q, a.ID, "a-"+a.Slug, time.Now())

	now := nowMilli()
	n, err := q.TransitionArticleStatus(ctx, TransitionArticleStatusParams{
		ID: a.ID, From: "draft", To: "archived", UpdatedAt: now,
	})
	if err != nil || n != 0 {
		t.Fatalf("transition from wrong status: n=%d err=%v", n, err)
	}

	n, err = q.TransitionArticleStatus(ctx, TransitionArticleStatusParams{
		ID: a.ID, From: "published", To: "archived", UpdatedAt: now,
		ArchivedAt: sql.NullInt64{Int64: now, Valid: true},
	})
	if err != nil || n != 1 {
		t.Fatalf("archive: n=%d err=%v", n, err)
	}

	got, _ := q.GetArticleByID(ctx, a.ID)
	if got.Status != "archived" || !got.ArchivedAt.Valid || got.DeletedAt.Valid {
		t.Errorf("unexpected article state: %+v", got)
	}
}

func TestIncrementArticleViews(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "")

	if _, err := q.IncrementArticleViews(ctx, a.Slug); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("drafts must not count views, got %v", err)
	}

	publish(t, q, a.ID, "views-"+a.Slug, time.Now())

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := q.IncrementArticleViews(ctx, "views-"+a.Slug)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("IncrementArticleViews: %v", err)
		}
	}

	got, _ := q.GetArticleByID(ctx, a.ID)
	if got.ViewCount != n {
		t.Errorf("ViewCount = %d, want %d", got.ViewCount, n)
	}
}

func TestListPublishedArticlesKeyset(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 5; i++ {
		a := createDraft(t, q, "")
		publish(t, q, a.ID, "p-"+a.Slug, base.AddDate(0, 0, i))
		ids = append(ids, a.ID)
	}
	// Same timestamp as the newest one; id breaks the tie.
	tie := createDraft(t, q, "")
	publish(t, q, tie.ID, "p-"+tie.Slug, base.AddDate(0, 0, 4))
	// Different year.
	old := createDraft(t, q, "")
	publish(t, q, old.ID, "p-"+old.Slug, base.AddDate(-1, 0, 0))
	// Remaining draft must never be listed.
	createDraft(t, q, "")

	page1, err := q.ListPublishedArticles(ctx, ListPublishedArticlesParams{Limit: 3})
	if err != nil {
		t.Fatalf("ListPublishedArticles: %v", err)
	}
	want := []int64{tie.ID, ids[4], ids[3]}
	for i, a := range page1 {
		if a.ID != want[i] {
			t.Fatalf("page1[%d] = %d, want %d", i, a.ID, want[i])
		}
	}

	last := page1[len(page1)-1]
	page2, err := q.ListPublishedArticles(ctx, ListPublishedArticlesParams{
		AfterPublishedAt: last.PublishedAt,
		AfterID:          last.ID,
		Limit:            10,
	})
	if err != nil {
		t.Fatalf("ListPublishedArticles page2: %v", err)
	}
	want = []int64{ids[2], ids[1], ids[0], old.ID}
	if len(page2) != len(want) {
		t.Fatalf("page2 has %d rows, want %d", len(page2), len(want))
	}
	for i, a := range page2 {
		if a.ID != want[i] {
			t.Errorf("page2[%d] = %d, want %d", i, a.ID, want[i])
		}
	}

	byYear, err := q.ListPublishedArticles(ctx, ListPublishedArticlesParams{
		Year:  sql.NullInt64{Int64: 2023, Valid: true},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListPublishedArticles year: %v", err)
	}
	if len(byYear) != 1 || byYear[0].ID != old.ID {
		t.Errorf("year filter returned %+v", byYear)
	}
}

func TestSearchPublishedArticles(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	a := createDraft(t, q, "Raziskovanje jame Vranja pod Krasom")
	b := createDraft(t, q, "Tečaj vrvne tehnike")
	c := createDraft(t, q, "Vranja jama je bila zaprta")
	publish(t, q, a.ID, "a-"+a.Slug, time.Now())
	publish(t, q, b.ID, "b-"+b.Slug, time.Now())
	// c stays a draft.

	got, err := q.SearchPublishedArticles(ctx, SearchPublishedArticlesParams{Match: `"vranja"`, Limit: 10})
	if err != nil {
		t.Fatalf("SearchPublishedArticles: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("search returned %+v, want only article %d (draft %d excluded)", got, a.ID, c.ID)
	}

	// Diacritics are folded by the tokenizer.
	got, err = q.SearchPublishedArticles(ctx, SearchPublishedArticlesParams{Match: `"tecaj"`, Limit: 10})
	if err != nil {
		t.Fatalf("SearchPublishedArticles: %v", err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("diacritic search returned %+v", got)
	}

	got, err = q.SearchPublishedArticles(ctx, SearchPublishedArticlesParams{
		Match: `"vranja"`,
		Year:  sql.NullInt64{Int64: 1999, Valid: true},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("SearchPublishedArticles year: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("year filter returned %d rows", len(got))
	}
}

func TestArticleAuthorLinks(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "")

	var authors []Author
	for _, name := range []string{"Ana", "Bor", "Cene"} {
		au, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "member", Name: name, CreatedAt: nowMilli(), UpdatedAt: nowMilli()})
		if err != nil {
			t.Fatalf("CreateAuthor: %v", err)
		}
		authors = append(authors, au)
	}

	for i, au := range []Author{authors[2], authors[0]} {
		if err := q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: a.ID, AuthorID: au.ID, Order: int64(i)}); err != nil {
			t.Fatalf("InsertArticleAuthor: %v", err)
		}
	}

	if err := q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: a.ID, AuthorID: authors[0].ID, Order: 5}); err == nil {
		t.Error("duplicate (article, author) pair must be rejected")
	}
	if err := q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: a.ID, AuthorID: authors[1].ID, Order: 0}); err == nil {
		t.Error("duplicate (article, order) must be rejected")
	}

	next, err := q.NextArticleAuthorOrder(ctx, a.ID)
	if err != nil || next != 2 {
		t.Fatalf("NextArticleAuthorOrder = %d, %v", next, err)
	}

	rows, err := q.ListAuthorsForArticle(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListAuthorsForArticle: %v", err)
	}
	if len(rows) != 2 || rows[0].Author.Name != "Cene" || rows[1].Author.Name != "Ana" {
		t.Fatalf("unexpected author order: %+v", rows)
	}

	count, err := q.CountArticlesForAuthor(ctx, authors[0].ID)
	if err != nil || count != 1 {
		t.Errorf("CountArticlesForAuthor = %d, %v", count, err)
	}

	if err := q.DeleteAuthor(ctx, authors[0].ID); err == nil {
		t.Error("deleting a linked author must fail")
	}

	b := createDraft(t, q, "")
	if err := q.CopyArticleAuthors(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("CopyArticleAuthors: %v", err)
	}
	copied, _ := q.ListAuthorsForArticle(ctx, b.ID)
	if len(copied) != 2 || copied[0].Author.ID != authors[2].ID || copied[1].Order != 1 {
		t.Errorf("copied links: %+v", copied)
	}
}

func TestListArticlesForAuthor(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	au, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "guest", Name: "Ana", CreatedAt: nowMilli(), UpdatedAt: nowMilli()})
	if err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	other, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "guest", Name: "Bor", CreatedAt: nowMilli(), UpdatedAt: nowMilli()})
	if err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}

	older := createDraft(t, q, "")
	newer := createDraft(t, q, "")
	draft := createDraft(t, q, "")
	foreign := createDraft(t, q, "")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	publish(t, q, older.ID, "starejsa", base)
	publish(t, q, newer.ID, "novejsa", base.Add(48*time.Hour))
	publish(t, q, foreign.ID, "tuja", base.Add(24*time.Hour))

	for _, id := range []int64{older.ID, newer.ID, draft.ID} {
		if err := q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: id, AuthorID: au.ID}); err != nil {
			t.Fatalf("InsertArticleAuthor: %v", err)
		}
	}
	if err := q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: foreign.ID, AuthorID: other.ID}); err != nil {
		t.Fatalf("InsertArticleAuthor: %v", err)
	}

	public, err := q.ListArticlesForAuthor(ctx, ListArticlesForAuthorParams{AuthorID: au.ID, PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListArticlesForAuthor: %v", err)
	}
	if len(public) != 2 || public[0].ID != newer.ID || public[1].ID != older.ID {
		t.Fatalf("published-only listing: %+v", public)
	}

	all, err := q.ListArticlesForAuthor(ctx, ListArticlesForAuthorParams{AuthorID: au.ID})
	if err != nil {
		t.Fatalf("ListArticlesForAuthor: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d articles, want 3", len(all))
	}
	for _, a := range all {
		if a.ID == foreign.ID {
			t.Error("article credited to another author was listed")
		}
	}
}

func TestAuthorGoogleIDUnique(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	gid := sql.NullString{String: "g-1", Valid: true}

	if _, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "member", Name: "A", GoogleID: gid}); err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	if _, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "member", Name: "B", GoogleID: gid}); err == nil {
		t.Error("duplicate google_id must be rejected")
	}
	// Guests without google_id never collide.
	for i := 0; i < 2; i++ {
		if _, err := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "guest", Name: "Gost"}); err != nil {
			t.Fatalf("CreateAuthor guest: %v", err)
		}
	}

	got, err := q.GetAuthorByGoogleID(ctx, "g-1")
	if err != nil || got.Name != "A" {
		t.Errorf("GetAuthorByGoogleID = %+v, %v", got, err)
	}
}

func TestMediaStatusGuard(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	m, err := q.CreateMedia(ctx, CreateMediaParams{
		Uuid: "u-1", Filename: "a.jpg", ContentType: "image/jpeg", SizeBytes: 10,
		StorageKey: "", Url: "", CreatedAt: nowMilli(), UpdatedAt: nowMilli(),
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}
	if m.UploadStatus != "pending" {
		t.Fatalf("UploadStatus = %q", m.UploadStatus)
	}

	n, err := q.CompleteMedia(ctx, CompleteMediaParams{ID: m.ID, UpdatedAt: nowMilli()})
	if err != nil || n != 0 {
		t.Fatalf("CompleteMedia on pending: n=%d err=%v", n, err)
	}

	n, err = q.TransitionMediaStatus(ctx, TransitionMediaStatusParams{ID: m.ID, From: "pending", To: "processing", UpdatedAt: nowMilli()})
	if err != nil || n != 1 {
		t.Fatalf("pending->processing: n=%d err=%v", n, err)
	}
	n, _ = q.TransitionMediaStatus(ctx, TransitionMediaStatusParams{ID: m.ID, From: "pending", To: "processing", UpdatedAt: nowMilli()})
	if n != 0 {
		t.Fatal("second confirm must not match")
	}

	for _, w := range []int64{400, 800} {
		for _, f := range []string{"avif", "jpeg"} {
			if err := q.CreateMediaVariant(ctx, CreateMediaVariantParams{MediaID: m.ID, Width: w, Height: w / 2, Format: f, Url: "u", StorageKey: "k", SizeBytes: 1}); err != nil {
				t.Fatalf("CreateMediaVariant: %v", err)
			}
		}
	}
	// Re-running the pipeline overwrites.
	if err := q.CreateMediaVariant(ctx, CreateMediaVariantParams{MediaID: m.ID, Width: 400, Height: 200, Format: "avif", Url: "u2", StorageKey: "k", SizeBytes: 2}); err != nil {
		t.Fatalf("CreateMediaVariant overwrite: %v", err)
	}

	n, err = q.CompleteMedia(ctx, CompleteMediaParams{ID: m.ID, BlurPlaceholder: "data:", UpdatedAt: nowMilli()})
	if err != nil || n != 1 {
		t.Fatalf("CompleteMedia: n=%d err=%v", n, err)
	}

	variants, err := q.ListMediaVariants(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListMediaVariants: %v", err)
	}
	if len(variants) != 4 || variants[0].Url != "u2" || variants[0].Format != "avif" || variants[3].Width != 800 {
		t.Errorf("variants = %+v", variants)
	}

	if _, err := db.ExecContext(ctx, `UPDATE media SET upload_status = 'bogus' WHERE id = ?`, m.ID); err == nil {
		t.Error("CHECK constraint must reject unknown statuses")
	}
}

func TestArticleMediaLinks(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "")

	var media []Medium
	for i, status := range []string{"processing", "pending", "completed"} {
		m, err := q.CreateMedia(ctx, CreateMediaParams{Uuid: "u-" + strconv.Itoa(i), Filename: "f", ContentType: "image/png"})
		if err != nil {
			t.Fatalf("CreateMedia: %v", err)
		}
		if status != "pending" {
			if _, err := db.ExecContext(ctx, `UPDATE media SET upload_status = ? WHERE id = ?`, status, m.ID); err != nil {
				t.Fatal(err)
			}
		}
		order, err := q.NextArticleMediaOrder(ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if order != int64(i) {
			t.Errorf("NextArticleMediaOrder = %d, want %d", order, i)
		}
		if err := q.InsertArticleMedia(ctx, ArticleMedium{ArticleID: a.ID, MediaID: m.ID, Order: order}); err != nil {
			t.Fatalf("InsertArticleMedia: %v", err)
		}
		media = append(media, m)
	}

	rows, err := q.ListMediaForArticle(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListMediaForArticle: %v", err)
	}
	if len(rows) != 2 || rows[0].Medium.ID != media[0].ID || rows[1].Medium.ID != media[2].ID {
		t.Errorf("pending media must be hidden: %+v", rows)
	}
}

func TestDeleteEverything(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createDraft(t, q, "jama")
	au, _ := q.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "guest", Name: "Gost"})
	_ = q.InsertArticleAuthor(ctx, ArticleAuthor{ArticleID: a.ID, AuthorID: au.ID})
	m, _ := q.CreateMedia(ctx, CreateMediaParams{Uuid: "u", Filename: "f", ContentType: "image/png"})
	_ = q.InsertArticleMedia(ctx, ArticleMedium{ArticleID: a.ID, MediaID: m.ID})

	err := InTx(ctx, db, func(tx *Queries) error {
		if _, err := tx.DeleteAllMedia(ctx); err != nil {
			return err
		}
		if err := tx.DeleteAllArticleAuthors(ctx); err != nil {
			return err
		}
		_, err := tx.DeleteAllArticles(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("delete everything: %v", err)
	}

	for _, table := range []string{"articles", "article_authors", "media", "article_media", "media_variants"} {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows", table, n)
		}
	}
	var ftsRows int
	_ = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles_fts WHERE articles_fts MATCH 'jama'`).Scan(&ftsRows)
	if ftsRows != 0 {
		t.Errorf("fts still has %d rows", ftsRows)
	}

	// Authors survive a reset.
	if _, err := q.GetAuthorByID(ctx, au.ID); err != nil {
		t.Errorf("author removed by reset: %v", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	sentinel := errors.New("boom")
	err := InTx(ctx, db, func(tx *Queries) error {
		if _, err := tx.CreateAuthor(ctx, CreateAuthorParams{AuthorType: "guest", Name: "X"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("InTx error = %v", err)
	}

	authors, err := New(db).ListAuthors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 0 {
		t.Errorf("rollback left %d authors", len(authors))
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	for i, level := range []string{"warning", "error", "error"} {
		if err := q.CreateEvent(ctx, CreateEventParams{Level: level, Category: "media", Message: "m" + strconv.Itoa(i), Metadata: "{}", CreatedAt: int64(1000 + i)}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	all, err := q.ListEvents(ctx, ListEventsParams{Limit: 10})
	if err != nil || len(all) != 3 || all[0].Message != "m2" {
		t.Fatalf("ListEvents = %+v, %v", all, err)
	}
	errs, _ := q.ListEvents(ctx, ListEventsParams{Level: "error", Limit: 10})
	if len(errs) != 2 {
		t.Errorf("error events = %d", len(errs))
	}

	n, err := q.DeleteEventsBefore(ctx, 1001)
	if err != nil || n != 1 {
		t.Errorf("DeleteEventsBefore = %d, %v", n, err)
	}
}
