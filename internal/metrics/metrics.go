package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settingsd_cache_hits_total",
			Help: "Total number of subject snapshot cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settingsd_cache_misses_total",
			Help: "Total number of subject snapshot cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settingsd_cache_invalidations_total",
			Help: "Total number of subject snapshot invalidations",
		},
	)

	CachePopulationsShared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settingsd_cache_populations_shared_total",
			Help: "Populations that joined an in-flight store read instead of issuing their own",
		},
	)

	CachedSubjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settingsd_cached_subjects",
			Help: "Number of subjects with a resident override snapshot",
		},
	)

	// Store metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingsd_store_operations_total",
			Help: "Override store operations by driver, operation and status",
		},
		[]string{"driver", "operation", "status"},
	)

	// Service metrics
	SettingReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingsd_setting_reads_total",
			Help: "Setting reads by resolution source",
		},
		[]string{"source"}, // override, default
	)

	SettingWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settingsd_setting_writes_total",
			Help: "Setting writes by kind",
		},
		[]string{"kind"}, // upsert, delete
	)
)
