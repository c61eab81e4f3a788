// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookDeliveries counts webhook requests by endpoint and outcome
	// ("ok", "bad_request", "error").
	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_webhook_deliveries_total",
		Help: "Webhook deliveries received, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// PostsIngested counts posts written into the cache, by category.
	PostsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_posts_ingested_total",
		Help: "Posts ingested into the cache, by category.",
	}, []string{"category"})

	// NotionRequests counts upstream API calls by outcome ("ok", "error").
	NotionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_notion_requests_total",
		Help: "Requests made to the Notion API, by outcome.",
	}, []string{"outcome"})

	// HTTPRequests counts served requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelflife_http_requests_total",
		Help: "HTTP requests served, by path pattern and status class.",
	}, []string{"route", "class"})
)
