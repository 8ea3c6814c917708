// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blaze",
		Name:      "like_toggles_total",
		Help:      "Like toggles by resulting state.",
	}, []string{"state"})

	CommentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blaze",
		Name:      "comments_posted_total",
		Help:      "Comments accepted by the backend.",
	})

	ViewsTracked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blaze",
		Name:      "views_tracked_total",
		Help:      "View tracking calls, split by whether the view was counted.",
	}, []string{"counted"})

	InFlightRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blaze",
		Name:      "inflight_rejections_total",
		Help:      "Actions rejected because the same action was still running.",
	}, []string{"action"})

	BackgroundFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blaze",
		Name:      "background_failures_total",
		Help:      "Failures that are logged but not returned to the caller.",
	}, []string{"op"})
)
