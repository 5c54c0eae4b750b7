package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/api/handlers"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/usage"
)

// Mediator runs every protected request through the same pipeline:
// resolve identity, check policy, delegate to the handler, record the
// outcome. Handlers behind it never see an unauthenticated request.
type Mediator struct {
	resolver *auth.Resolver
	policy   *auth.Policy
	recorder *usage.Recorder
	log      *slog.Logger
	now      func() time.Time
}

func NewMediator(resolver *auth.Resolver, policy *auth.Policy, recorder *usage.Recorder, log *slog.Logger) *Mediator {
	return &Mediator{
		resolver: resolver,
		policy:   policy,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// Protect wraps a handler with the resolve/authorize/record pipeline for
// the named operation. Every attempt is recorded, including anonymous
// ones where resolution itself failed.
func (m *Mediator) Protect(op auth.Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		meta := &usage.Meta{}

		entry := usage.Entry{
			Operation: op.Name,
			Endpoint:  r.URL.Path,
			Method:    r.Method,
			Meta:      meta,
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		}

		pr, err := m.resolver.Resolve(r)
		if err != nil {
			handlers.WriteError(w, err)
			entry.StatusCode = handlers.StatusFor(err)
			// A resolution failure is only a denial when the credential
			// itself was rejected; infrastructure faults are errors.
			if entry.StatusCode >= 500 {
				entry.Outcome = models.OutcomeError
				m.log.Error("credential resolution failed",
					"operation", op.Name,
					"error", err.Error())
			} else {
				entry.Outcome = models.OutcomeDenied
			}
			entry.Latency = m.now().Sub(start)
			m.record(r.Context(), entry)
			return
		}

		entry.UserID = &pr.UserID
		if pr.APIKey != nil {
			entry.APIKeyID = &pr.APIKey.ID
		}

		if err := m.policy.Allow(pr, op, start); err != nil {
			handlers.WriteError(w, err)
			entry.Outcome = models.OutcomeDenied
			entry.StatusCode = handlers.StatusFor(err)
			entry.Latency = m.now().Sub(start)
			m.record(r.Context(), entry)
			m.log.Info("request denied",
				"operation", op.Name,
				"user", pr.Username,
				"reason", err.Error())
			return
		}

		ctx := auth.WithPrincipal(r.Context(), pr)
		ctx = usage.WithMeta(ctx, meta)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r.WithContext(ctx))

		entry.StatusCode = sw.status
		entry.Latency = m.now().Sub(start)
		if sw.status < 400 && !meta.StreamFailed {
			entry.Outcome = models.OutcomeSuccess
		} else {
			entry.Outcome = models.OutcomeError
		}
		m.record(r.Context(), entry)
	}
}

// record persists the entry even if the client has already gone away.
func (m *Mediator) record(ctx context.Context, e usage.Entry) {
	m.recorder.Record(context.WithoutCancel(ctx), e)
}

// statusWriter captures the status the handler wrote. Flush passes
// through so streaming responses keep working behind the mediator.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
