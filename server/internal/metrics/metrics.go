// Package metrics собирает метрики Prometheus сервера реестра.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timefi"

var (
	// Registry содержит коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Текущее число обрабатываемых HTTP запросов.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Число обработанных HTTP запросов.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Длительность HTTP запросов.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		},
		[]string{"method", "path"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Число изменяющих операций реестра по результату.",
		},
		[]string{"op", "result"},
	)

	ledgerCommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "commit_duration_seconds",
			Help:      "Длительность операции вместе с записью журнала.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	ledgerHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "height",
		Help:      "Текущая высота часов реестра.",
	})

	ledgerEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "events",
		Help:      "Число событий в журнале.",
	})

	ledgerTVL = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "tvl_micro",
		Help:      "Сумма активных депозитов, микро-единицы.",
	})

	ledgerFees = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "total_fees_micro",
		Help:      "Собранные комиссии и штрафы, микро-единицы.",
	})

	ledgerActiveVaults = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "vaults_total",
		Help:      "Число созданных хранилищ.",
	})

	archiveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "runs_total",
			Help:      "Число выгрузок снимков реестра.",
		},
		[]string{"success"},
	)

	streamSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Текущее число подписчиков потока событий.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOps,
		ledgerCommitDuration,
		ledgerHeight,
		ledgerEvents,
		ledgerTVL,
		ledgerFees,
		ledgerActiveVaults,
		archiveRuns,
		streamSubscribers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler возвращает HTTP обработчик, отдающий зарегистрированные метрики.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler оборачивает обработчик сбором HTTP метрик.
// Путь берется из шаблона маршрута chi, чтобы id не плодили серии.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordOperation учитывает изменяющую операцию реестра.
// result - "ok", код ошибки реестра (например "ERR_AMOUNT") или "error".
func RecordOperation(op, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	ledgerOps.WithLabelValues(op, result).Inc()
	ledgerCommitDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// LedgerGauges - значения, отражаемые в метриках после каждой фиксации.
type LedgerGauges struct {
	Height     uint64
	Events     uint64
	TVL        uint64
	TotalFees  uint64
	VaultCount uint64
}

// SetLedgerGauges обновляет метрики состояния реестра.
func SetLedgerGauges(g LedgerGauges) {
	ledgerHeight.Set(float64(g.Height))
	ledgerEvents.Set(float64(g.Events))
	ledgerTVL.Set(float64(g.TVL))
	ledgerFees.Set(float64(g.TotalFees))
	ledgerActiveVaults.Set(float64(g.VaultCount))
}

// RecordArchive учитывает выгрузку снимка.
func RecordArchive(success bool) {
	archiveRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// StreamSubscribed отражает подключение (delta=1) или отключение (delta=-1) подписчика.
func StreamSubscribed(delta int) {
	streamSubscribers.Add(float64(delta))
}

// routePattern возвращает шаблон маршрута chi или "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack нужен для апгрейда соединения до websocket.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
