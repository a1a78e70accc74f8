package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "campusconnect"

// Registry holds every metric exported on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; build information lives in the labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

var (
	// EventsCreated counts events stored through the API.
	EventsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_created_total",
			Help:      "Total number of events created",
		},
	)

	// EventJoins counts join attempts by outcome: joined, duplicate, not_found,
	// invalid or error.
	EventJoins = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_joins_total",
			Help:      "Total number of event join attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RegistrationLinksFixed counts links rewritten by fix-links.
	RegistrationLinksFixed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_links_fixed_total",
			Help:      "Total number of registration links rewritten by fix-links",
		},
	)

	// ProfileUpserts counts profile updates by outcome: saved, invalid or error.
	ProfileUpserts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_upserts_total",
			Help:      "Total number of profile updates by outcome",
		},
		[]string{"outcome"},
	)

	// SignIns counts OAuth callbacks by outcome: success, denied or error.
	SignIns = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signins_total",
			Help:      "Total number of sign-in attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Init registers runtime collectors and sets build information. It must be
// called once per process.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
