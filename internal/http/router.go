package httpx

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagecraft/pagecraft/internal/domain"
	"github.com/pagecraft/pagecraft/internal/hosting"
	"github.com/pagecraft/pagecraft/internal/repository"
	"github.com/pagecraft/pagecraft/internal/service/export"
	"github.com/pagecraft/pagecraft/internal/service/publish"
	"github.com/pagecraft/pagecraft/internal/service/queue"
	"github.com/pagecraft/pagecraft/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	export         export.Service
	publish        publish.Service
	queue          queue.Service
	hosting        *hosting.Client
	upgrader       websocket.Upgrader
	limiter        RateLimiter
	processorToken string
	dbHealth       func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault          = time.Minute
	rateWindowRealtime         = 30 * time.Second
	rateLimitExport            = 20
	rateLimitPublish           = 10
	rateLimitRead              = 120
	rateLimitWrite             = 60
	rateLimitWebsocket         = 30
	rateLimitProcessorCallback = 60
	rateLimitProcessorLogs     = 600
	healthCheckTimeout         = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, exportSvc export.Service, publishSvc publish.Service, queueSvc queue.Service, hostingClient *hosting.Client, limiter RateLimiter, processorToken string, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		export:  exportSvc,
		publish: publishSvc,
		queue:   queueSvc,
		hosting: hostingClient,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:        limiter,
		processorToken: strings.TrimSpace(processorToken),
		dbHealth:       dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/projects/", r.audit("/projects/:id", r.handleProjectSubroutes))
	r.mux.HandleFunc("/queue", r.audit("/queue", r.withRateLimit("/queue", rateLimitWrite, rateWindowDefault, r.handleQueueCollection)))
	r.mux.HandleFunc("/queue/status", r.audit("/queue/status", r.withRateLimit("/queue/status", rateLimitRead, rateWindowDefault, r.handleQueueStats)))
	r.mux.HandleFunc("/queue/", r.audit("/queue/:id", r.handleQueueSubroutes))
	r.mux.HandleFunc("/hosting/domain-check", r.audit("/hosting/domain-check", r.withRateLimit("/hosting/domain-check", rateLimitRead, rateWindowDefault, r.handleDomainCheck)))
	r.mux.HandleFunc("/ws/deployments", r.audit("/ws/deployments", r.withRateLimit("/ws/deployments", rateLimitWebsocket, rateWindowRealtime, r.handleDeploymentsWS)))
	r.mux.HandleFunc("/processor/callback", r.audit("/processor/callback", r.withRateLimit("/processor/callback", rateLimitProcessorCallback, rateWindowDefault, r.handleProcessorCallback)))
	r.mux.HandleFunc("/processor/logs", r.audit("/processor/logs", r.withRateLimit("/processor/logs", rateLimitProcessorLogs, rateWindowDefault, r.handleProcessorLogs)))
}

func (r *Router) handleProjectSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/projects/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" {
		r.notFound(w)
		return
	}
	projectID := parts[0]
	switch parts[1] {
	case "export":
		r.withRateLimit("/projects/:id/export", rateLimitExport, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleExport(w, req, projectID)
		})(w, req)
	case "publish":
		r.withRateLimit("/projects/:id/publish", rateLimitPublish, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handlePublish(w, req, projectID)
		})(w, req)
	case "deployments":
		r.withRateLimit("/projects/:id/deployments", rateLimitRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleProjectDeployments(w, req, projectID)
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleExport(w http.ResponseWriter, req *http.Request, projectID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	result, err := r.export.Generate(req.Context(), projectID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	pages := make([]map[string]any, 0, len(result.Pages))
	for _, page := range result.Pages {
		pages = append(pages, map[string]any{
			"filename": page.Filename,
			"slug":     page.Slug,
			"homepage": page.Homepage,
			"bytes":    len(page.HTML),
		})
	}
	assets := make([]map[string]any, 0, len(result.Assets))
	for _, asset := range result.Assets {
		assets = append(assets, map[string]any{
			"path":  asset.Path,
			"kind":  asset.Kind,
			"bytes": len(asset.Content),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"manifest":  result.Manifest,
		"pages":     pages,
		"assets":    assets,
		"imageUrls": result.ImageURLs,
	})
}

func (r *Router) handlePublish(w http.ResponseWriter, req *http.Request, projectID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Subdomain  string  `json:"subdomain"`
		Domain     string  `json:"domain"`
		Priority   int     `json:"priority"`
		CustomerID *string `json:"customer_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	entry, err := r.publish.Publish(req.Context(), publish.Input{
		ProjectID:  projectID,
		CustomerID: payload.CustomerID,
		Subdomain:  payload.Subdomain,
		Domain:     payload.Domain,
		Priority:   payload.Priority,
	})
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, queueEntryPayload(entry))
}

func (r *Router) handleProjectDeployments(w http.ResponseWriter, req *http.Request, projectID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	entries, err := r.queue.ListByProject(req.Context(), projectID, limit)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(entries))
	for i := range entries {
		payload = append(payload, queueEntryPayload(&entries[i]))
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleQueueCollection serves DELETE /queue?days=N, the bulk age-out.
func (r *Router) handleQueueCollection(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodDelete {
		r.methodNotAllowed(w)
		return
	}
	days, err := strconv.Atoi(req.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		writeError(w, http.StatusBadRequest, "days query parameter must be a positive integer")
		return
	}
	deleted, err := r.queue.CleanupOlderThan(req.Context(), days)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (r *Router) handleQueueStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	stats, err := r.queue.Stats(req.Context())
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (r *Router) handleQueueSubroutes(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.TrimPrefix(req.URL.Path, "/queue/")
	parts := strings.Split(trimmed, "/")
	deploymentID := parts[0]
	if deploymentID == "" {
		r.notFound(w)
		return
	}
	if len(parts) == 1 {
		switch req.Method {
		case http.MethodGet:
			r.withRateLimit("/queue/:id", rateLimitRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
				r.handleQueueGet(w, req, deploymentID)
			})(w, req)
		case http.MethodDelete:
			r.withRateLimit("/queue/:id", rateLimitWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
				r.handleQueueDelete(w, req, deploymentID)
			})(w, req)
		default:
			r.methodNotAllowed(w)
		}
		return
	}
	if len(parts) != 2 {
		r.notFound(w)
		return
	}
	switch parts[1] {
	case "position":
		r.withRateLimit("/queue/:id/position", rateLimitRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleQueuePosition(w, req, deploymentID)
		})(w, req)
	case "cancel":
		r.withRateLimit("/queue/:id/cancel", rateLimitWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleQueueCancel(w, req, deploymentID)
		})(w, req)
	case "retry":
		r.withRateLimit("/queue/:id/retry", rateLimitWrite, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleQueueRetry(w, req, deploymentID)
		})(w, req)
	case "logs":
		r.withRateLimit("/queue/:id/logs", rateLimitRead, rateWindowDefault, func(w http.ResponseWriter, req *http.Request) {
			r.handleQueueLogs(w, req, deploymentID)
		})(w, req)
	default:
		r.notFound(w)
	}
}

func (r *Router) handleQueueGet(w http.ResponseWriter, req *http.Request, deploymentID string) {
	entry, err := r.queue.Get(req.Context(), deploymentID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queueEntryPayload(entry))
}

func (r *Router) handleQueueDelete(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if err := r.queue.Delete(req.Context(), deploymentID); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (r *Router) handleQueuePosition(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	position, status, err := r.queue.Position(req.Context(), deploymentID)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"position": position,
		"status":   status,
	})
}

func (r *Router) handleQueueCancel(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.queue.Cancel(req.Context(), deploymentID); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (r *Router) handleQueueRetry(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if err := r.queue.Retry(req.Context(), deploymentID); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}

func (r *Router) handleQueueLogs(w http.ResponseWriter, req *http.Request, deploymentID string) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	logs, err := r.queue.Logs(req.Context(), deploymentID, limit, offset)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (r *Router) handleDomainCheck(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	subdomain := strings.TrimSpace(req.URL.Query().Get("subdomain"))
	domain := strings.TrimSpace(req.URL.Query().Get("domain"))
	if subdomain == "" && domain == "" {
		writeError(w, http.StatusBadRequest, "subdomain or domain query parameter required")
		return
	}
	available, err := r.hosting.CheckDomainAvailable(req.Context(), subdomain, domain)
	if err != nil {
		if errors.Is(err, hosting.ErrReservedName) {
			writeJSON(w, http.StatusOK, map[string]any{
				"available": false,
				"reason":    "reserved",
			})
			return
		}
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": available})
}

func (r *Router) handleDeploymentsWS(w http.ResponseWriter, req *http.Request) {
	deploymentID := req.URL.Query().Get("deployment_id")
	if deploymentID == "" {
		writeError(w, http.StatusBadRequest, "deployment_id query parameter required")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.queue.Hub().Subscribe(deploymentID, client)
	go func() {
		defer func() {
			r.queue.Hub().Unsubscribe(deploymentID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleProcessorCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if !r.verifyProcessorToken(w, req) {
		return
	}
	var payload queue.CallbackPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.queue.ProcessCallback(req.Context(), payload); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

func (r *Router) handleProcessorLogs(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if !r.verifyProcessorToken(w, req) {
		return
	}
	var payload struct {
		DeploymentID string          `json:"deployment_id"`
		ProjectID    string          `json:"project_id"`
		Level        string          `json:"level"`
		Message      string          `json:"message"`
		Metadata     json.RawMessage `json:"metadata"`
		Timestamp    string          `json:"timestamp"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.Message = strings.TrimSpace(payload.Message)
	if payload.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if payload.DeploymentID == "" {
		writeError(w, http.StatusBadRequest, "deployment_id is required")
		return
	}
	timestamp := time.Now().UTC()
	if payload.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid timestamp format")
			return
		}
		timestamp = parsed.UTC()
	}
	entry := domain.QueueLog{
		DeploymentID: payload.DeploymentID,
		ProjectID:    payload.ProjectID,
		Level:        strings.TrimSpace(payload.Level),
		Message:      payload.Message,
		Metadata:     payload.Metadata,
		CreatedAt:    timestamp,
	}
	if err := r.queue.AppendLog(req.Context(), &entry); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stored"})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// writeServiceError maps service errors onto HTTP status codes.
func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hosting.ErrReservedName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		var apiErr hosting.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func queueEntryPayload(entry *domain.QueueEntry) map[string]any {
	payload := map[string]any{
		"id":            entry.ID,
		"project_id":    entry.ProjectID,
		"status":        entry.Status,
		"priority":      entry.Priority,
		"subdomain":     entry.Payload.Subdomain,
		"domain":        entry.Payload.Domain,
		"attempt_count": entry.AttemptCount,
		"max_attempts":  entry.MaxAttempts,
		"created_at":    entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.ErrorMessage != nil {
		payload["error_message"] = *entry.ErrorMessage
	}
	if entry.StartedAt != nil {
		payload["started_at"] = entry.StartedAt.UTC().Format(time.RFC3339)
	}
	if entry.CompletedAt != nil {
		payload["completed_at"] = entry.CompletedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		actor := "anonymous"
		if strings.HasPrefix(req.URL.Path, "/processor/") {
			actor = "processor"
		}
		fields = append(fields, "actor", actor)

		r.recordRequestMetrics(req.Method, route, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

// verifyProcessorToken ensures processor callbacks include the configured
// secret.
func (r *Router) verifyProcessorToken(w http.ResponseWriter, req *http.Request) bool {
	expected := r.processorToken
	if expected == "" {
		r.logger.Error("processor token not configured", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "processor authentication misconfigured")
		return false
	}
	token := strings.TrimSpace(req.Header.Get("X-Processor-Token"))
	if token == "" {
		token = strings.TrimSpace(req.URL.Query().Get("processor_token"))
	}
	if len(token) != len(expected) || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		r.logger.Warn("processor token mismatch", "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "invalid processor token")
		return false
	}
	return true
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
