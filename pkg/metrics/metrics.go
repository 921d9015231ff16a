package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_http_requests_total",
		Help: "The total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "p4_dashboard_http_request_duration_seconds",
		Help:    "Time taken to serve an HTTP request",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	SheetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_sheet_loads_total",
		Help: "The total number of sheet reads from the backing store",
	}, []string{"sheet", "result"})

	SheetLoadLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "p4_dashboard_sheet_load_duration_seconds",
		Help:    "Time taken to read a sheet from the backing store",
		Buckets: prometheus.DefBuckets,
	}, []string{"sheet"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_cache_lookups_total",
		Help: "The total number of table cache lookups",
	}, []string{"result"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_uploads_total",
		Help: "The total number of upload attempts",
	}, []string{"category", "status"})

	UploadedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_uploaded_rows_total",
		Help: "The total number of rows appended through uploads",
	}, []string{"category"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p4_dashboard_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"result"})
)

// 统一的 result 标签取值
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultLimited = "limited"
	ResultDenied  = "denied"
)
