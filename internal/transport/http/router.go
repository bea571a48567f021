package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custos/internal/platform/metrics"
	"custos/internal/platform/middleware"
	"custos/pkg/autherr"
)

// NewRouter wires all endpoints. Everything under /public is meant to be
// exposed; the bare-path lookups stay behind the reverse proxy for
// service-to-service calls.
func NewRouter(h *Handler, log *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log, m))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, autherr.New(autherr.CodeNotFound, "no such endpoint"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, autherr.New(autherr.CodeMethodNotAllowed, "method not allowed"))
	})

	r.Get("/info", h.info)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/public", func(r chi.Router) {
		r.Post("/user/new", handle(h.userNew))
		r.Post("/user_data/new", handle(h.userDataNew))
		r.Post("/verification_challenge/new", handle(h.verificationChallengeNew))
		r.Post("/email/new", handle(h.emailNew))
		r.Post("/parent_permission/new", handle(h.parentPermissionNew))
		r.Post("/password_reset/new", handle(h.passwordResetNew))
		r.Post("/password/new_reset", handle(h.passwordNewReset))
		r.Post("/password/new_change", handle(h.passwordNewChange))
		r.Post("/api_key/new_valid", handle(h.apiKeyNewValid))
		r.Post("/api_key/new_cancel", handle(h.apiKeyNewCancel))

		r.Post("/user/view", handle(h.userView))
		r.Post("/user_data/view", handle(h.userDataView))
		r.Post("/verification_challenge/view", handle(h.verificationChallengeView))
		r.Post("/email/view", handle(h.emailView))
		r.Post("/parent_permission/view", handle(h.parentPermissionView))
		r.Post("/password/view", handle(h.passwordView))
		r.Post("/api_key/view", handle(h.apiKeyView))
	})

	// private, not proxied
	r.Post("/get_user_by_id", handle(h.getUserByID))
	r.Post("/get_user_by_api_key_if_valid", handle(h.getUserByAPIKeyIfValid))

	return r
}
