// Package metrics declares the server's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "textbook"

const (
	LabelChapter = "chapter"
	LabelOutcome = "outcome"
	LabelStatus  = "status"
	LabelResult  = "result"
	LabelRoute   = "route"
)

var ChapterViews = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "chapter_views_total",
		Help:      "Chapter pages served",
		Namespace: Namespace,
	},
	[]string{LabelChapter},
)

var RenderCache = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "render_cache_lookups_total",
		Help:      "Rendered chapter cache lookups by result (hit, miss)",
		Namespace: Namespace,
	},
	[]string{LabelResult},
)

var ChatRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "chat_requests_total",
		Help:      "Teaching assistant requests by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var ChatDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:      "chat_duration_seconds",
		Help:      "Time to stream a full teaching assistant reply",
		Namespace: Namespace,
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	},
)

var ContactSubmissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "contact_submissions_total",
		Help:      "Contact form posts by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)

var ImportJobs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "import_jobs_total",
		Help:      "Manuscript import jobs by final status",
		Namespace: Namespace,
	},
	[]string{LabelStatus},
)

var RateLimited = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
		Namespace: Namespace,
	},
	[]string{LabelRoute},
)

var AuthAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "auth_attempts_total",
		Help:      "Site password attempts by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOutcome},
)
