package commitserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedCommits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashlog",
		Subsystem: "commitserver",
		Name:      "published_commits_total",
		Help:      "Commits appended to the shared log.",
	})

	fetchedCommits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashlog",
		Subsystem: "commitserver",
		Name:      "fetched_commits_total",
		Help:      "Commits handed out to replicas.",
	})

	indexLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashlog",
		Subsystem: "commitserver",
		Name:      "index_length",
		Help:      "Commits in the publish index.",
	})
)
