// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the sitemap and robots.txt served for the public site.
package seo

import (
	"encoding/xml"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ArticlePath is the public site path of an article, followed by its slug.
const ArticlePath = "/novica/"

// MaxURLs is the sitemap protocol's per-file URL limit.
const MaxURLs = 50000

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the builder.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapArticle is a published article as listed in the sitemap.
type SitemapArticle struct {
	Slug          string
	UpdatedAt     time.Time
	PublishedYear int
}

// SitemapBuilder builds sitemap XML for the news site.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
	years   map[int]time.Time
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
		years:   make(map[int]time.Time),
	}
}

// AddHomepage adds the news index to the sitemap.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddArticle adds a published article and remembers its year for the
// year archive entries.
func (b *SitemapBuilder) AddArticle(a SitemapArticle) {
	u := SitemapURL{
		Loc:        b.siteURL + ArticlePath + url.PathEscape(a.Slug),
		ChangeFreq: ChangeFreqYearly,
		Priority:   "0.8",
	}
	if !a.UpdatedAt.IsZero() {
		u.LastMod = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)

	if a.PublishedYear > 0 && a.UpdatedAt.After(b.years[a.PublishedYear]) {
		b.years[a.PublishedYear] = a.UpdatedAt
	}
}

// AddArticles adds multiple articles to the sitemap.
func (b *SitemapBuilder) AddArticles(articles []SitemapArticle) {
	for _, a := range articles {
		b.AddArticle(a)
	}
}

// addYears appends one filtered index entry per year seen, newest first.
func (b *SitemapBuilder) addYears() {
	years := make([]int, 0, len(b.years))
	for y := range b.years {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)
	for _, y := range years {
		b.urls = append(b.urls, SitemapURL{
			Loc:        b.siteURL + "/?leto=" + strconv.Itoa(y),
			LastMod:    b.years[y].UTC().Format(time.RFC3339),
			ChangeFreq: ChangeFreqMonthly,
			Priority:   "0.5",
		})
	}
}

// Build generates the sitemap XML. Entries past MaxURLs are dropped.
func (b *SitemapBuilder) Build() ([]byte, error) {
	b.addYears()
	urls := b.urls
	if len(urls) > MaxURLs {
		urls = urls[:MaxURLs]
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(Sitemap{XMLNS: XMLNamespace, URLs: urls}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the sitemap for the homepage and the given articles.
func GenerateSitemap(siteURL string, articles []SitemapArticle) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage()
	builder.AddArticles(articles)
	return builder.Build()
}
