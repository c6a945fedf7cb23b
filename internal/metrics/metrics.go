// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for the media pipeline, the
// background job queue, the article cache and directory sync.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "novice"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	variantsProduced *prometheus.CounterVec
	variantBytes     *prometheus.CounterVec
	jobs             *prometheus.CounterVec
	queueDepth       *prometheus.GaugeVec
	authorSync       *prometheus.CounterVec
}

// New creates a registry with Go/process collectors and the application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "pipeline_runs_total",
			Help:      "Variant pipeline runs by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of one variant pipeline run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		variantsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "variants_produced_total",
			Help:      "Image variants encoded and uploaded, by format.",
		}, []string{"format"}),
		variantBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "variant_bytes_total",
			Help:      "Bytes of encoded variants uploaded, by format.",
		}, []string{"format"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Background jobs processed by kind and outcome.",
		}, []string{"kind", "outcome"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "queue_depth",
			Help:      "Jobs waiting in each queue.",
		}, []string{"queue"}),
		authorSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "authors",
			Name:      "directory_sync_total",
			Help:      "Authors touched by directory sync, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.pipelineRuns,
		m.pipelineDuration,
		m.variantsProduced,
		m.variantBytes,
		m.jobs,
		m.queueDepth,
		m.authorSync,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePipeline records one pipeline run.
func (m *Metrics) ObservePipeline(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(d.Seconds())
}

// VariantProduced records one uploaded variant.
func (m *Metrics) VariantProduced(format string, size int) {
	if m == nil {
		return
	}
	m.variantsProduced.WithLabelValues(format).Inc()
	m.variantBytes.WithLabelValues(format).Add(float64(size))
}

// JobProcessed records a finished background job.
func (m *Metrics) JobProcessed(kind, outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(kind, outcome).Inc()
}

// SetQueueDepth reports the number of jobs waiting in the named queue.
func (m *Metrics) SetQueueDepth(queue string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(queue).Set(float64(n))
}

// CacheStatsFunc reports cumulative cache hits and misses.
type CacheStatsFunc func() (hits, misses int64)

// ObserveCache exports the article cache hit and miss counters. It may be
// called once per backend label.
func (m *Metrics) ObserveCache(backend string, stats CacheStatsFunc) error {
	if m == nil || stats == nil {
		return nil
	}
	labels := prometheus.Labels{"backend": backend}
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   "article_cache",
		Name:        "hits_total",
		ConstLabels: labels,
	}, func() float64 {
		h, _ := stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   "article_cache",
		Name:        "misses_total",
		ConstLabels: labels,
	}, func() float64 {
		_, mi := stats()
		return float64(mi)
	})
	if err := m.registry.Register(hits); err != nil {
		return err
	}
	return m.registry.Register(misses)
}

// AuthorSync records the counts of one directory sync.
func (m *Metrics) AuthorSync(created, updated, unchanged int) {
	if m == nil {
		return
	}
	m.authorSync.WithLabelValues("created").Add(float64(created))
	m.authorSync.WithLabelValues("updated").Add(float64(updated))
	m.authorSync.WithLabelValues("unchanged").Add(float64(unchanged))
}
