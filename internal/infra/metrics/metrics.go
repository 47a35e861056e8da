package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 8, 10, 15, 30},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	PixChargesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pix_charges_total",
		Help: "Попытки создания PIX-кобрансы по источнику учётных данных и результату",
	}, []string{"source", "status"})

	CredentialResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_resolutions_total",
		Help: "Выбор учётных данных мерчанта по источнику",
	}, []string{"source"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Общее количество HTTP-запросов.",
	}, []string{"component", "method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Длительность HTTP-запросов.",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "method", "path", "status"})

	HTTPRequestsInFlight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Количество текущих HTTP-запросов в обработке.",
	}, []string{"component"})

	MailJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_jobs_total",
		Help: "Обработанные задачи на отправку писем",
	}, []string{"status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		PixChargesTotal,
		CredentialResolutionsTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		MailJobsTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncPixCharge учитывает попытку создания кобрансы.
func IncPixCharge(source string, err error) {
	if source == "" {
		source = "none"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	PixChargesTotal.WithLabelValues(source, status).Inc()
}

// IncCredentialResolution учитывает, откуда были взяты учётные данные.
func IncCredentialResolution(source string) {
	CredentialResolutionsTotal.WithLabelValues(source).Inc()
}

// IncMailJob учитывает обработанную задачу на отправку письма.
func IncMailJob(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	MailJobsTotal.WithLabelValues(status).Inc()
}

// Middleware собирает метрики HTTP-запросов, путь берётся из шаблона маршрута chi.
func Middleware(component string) func(http.Handler) http.Handler {
	if component == "" {
		component = "default"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			HTTPRequestsInFlight.WithLabelValues(component).Inc()
			defer HTTPRequestsInFlight.WithLabelValues(component).Dec()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			statusCode := ww.Status()
			if statusCode == 0 {
				statusCode = http.StatusOK
			}
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			labels := []string{component, r.Method, path, strconv.Itoa(statusCode)}
			HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}
