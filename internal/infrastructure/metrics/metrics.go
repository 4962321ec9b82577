package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RateSyncMetrics содержит метрики фоновой синхронизации курсов
type RateSyncMetrics struct {
	CyclesTotal           *prometheus.CounterVec
	CycleDuration         prometheus.Histogram
	StaleCodes            prometheus.Gauge
	CodesByFreshness      *prometheus.GaugeVec
	UpstreamRequestsTotal *prometheus.CounterVec
	UpstreamDuration      prometheus.Histogram
	StoreErrorsTotal      *prometheus.CounterVec
	RatesAppliedTotal     prometheus.Counter
	RatesFallbackTotal    prometheus.Counter
	PublishErrorsTotal    prometheus.Counter
	CurrencyRate          *prometheus.GaugeVec
	LastSuccessTimestamp  prometheus.Gauge
}

// NewRateSyncMetrics регистрирует метрики в reg; nil означает глобальный регистр
func NewRateSyncMetrics(reg prometheus.Registerer) *RateSyncMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &RateSyncMetrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_sync_cycles_total",
				Help: "Количество циклов синхронизации по результату",
			},
			[]string{"result"},
		),

		CycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rates_sync_cycle_duration_seconds",
				Help:    "Длительность цикла синхронизации в секундах",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),

		StaleCodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rates_sync_stale_codes",
				Help: "Количество устаревших или отсутствующих валют в последнем цикле",
			},
		),

		CodesByFreshness: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rates_sync_codes",
				Help: "Количество валют по состоянию свежести в последнем цикле",
			},
			[]string{"freshness"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_upstream_requests_total",
				Help: "Запросы к поставщику курсов по результату",
			},
			[]string{"provider", "result"},
		),

		UpstreamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rates_upstream_request_duration_seconds",
				Help:    "Длительность запроса к поставщику курсов",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),

		StoreErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_store_errors_total",
				Help: "Ошибки хранилища курсов по операции",
			},
			[]string{"operation"},
		),

		RatesAppliedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_applied_total",
				Help: "Количество применённых курсов",
			},
		),

		RatesFallbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_fallback_total",
				Help: "Курсы, отсутствующие или некорректные в ответе поставщика",
			},
		),

		PublishErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rates_publish_errors_total",
				Help: "Ошибки публикации событий об обновлении курсов",
			},
		),

		CurrencyRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rates_currency_rate",
				Help: "Последний применённый курс валюты",
			},
			[]string{"code"},
		),

		LastSuccessTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rates_sync_last_success_timestamp_seconds",
				Help: "Время последнего цикла без ошибки загрузки",
			},
		),
	}
}

// RecordCycle записывает итог цикла
func (m *RateSyncMetrics) RecordCycle(result string, durationSeconds float64, fresh, stale, missing int) {
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(durationSeconds)
	m.StaleCodes.Set(float64(stale + missing))
	m.CodesByFreshness.WithLabelValues("fresh").Set(float64(fresh))
	m.CodesByFreshness.WithLabelValues("stale").Set(float64(stale))
	m.CodesByFreshness.WithLabelValues("missing").Set(float64(missing))
	if result != CycleFetchFailed {
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordUpstream записывает запрос к поставщику
func (m *RateSyncMetrics) RecordUpstream(provider string, durationSeconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamRequestsTotal.WithLabelValues(provider, result).Inc()
	m.UpstreamDuration.Observe(durationSeconds)
}

// RecordStoreError записывает ошибку чтения или записи
func (m *RateSyncMetrics) RecordStoreError(operation string) {
	m.StoreErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordApplied записывает применённый курс
func (m *RateSyncMetrics) RecordApplied(code string, rate float64, fallback bool) {
	m.RatesAppliedTotal.Inc()
	m.CurrencyRate.WithLabelValues(code).Set(rate)
	if fallback {
		m.RatesFallbackTotal.Inc()
	}
}

func (m *RateSyncMetrics) RecordPublishError() {
	m.PublishErrorsTotal.Inc()
}

const (
	CycleUpToDate    = "up_to_date"
	CycleApplied     = "applied"
	CycleFetchFailed = "fetch_failed"
)
