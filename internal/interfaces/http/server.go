package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vendorguard/internal/bootstrap/logging"
	"vendorguard/internal/errs"
	"vendorguard/internal/usecase/audit"
	"vendorguard/internal/usecase/document"
	"vendorguard/internal/usecase/flags"
	"vendorguard/internal/usecase/risk"
	"vendorguard/internal/usecase/vendor"
)

// Server is the HTTP boundary around the engine. Authentication and role
// checks happen upstream; the acting identity arrives in the X-Actor
// header. Engine error kinds are mapped to status codes here.
type Server struct {
	srv *http.Server
}

func NewServer(
	addr string,
	vendors *vendor.Service,
	documents *document.Service,
	riskSvc *risk.Service,
	flagSvc *flags.Service,
	auditSvc *audit.Service,
) *Server {
	h := &handlers{
		vendors:   vendors,
		documents: documents,
		risk:      riskSvc,
		flags:     flagSvc,
		audit:     auditSvc,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", h.onboardVendor)
			r.Get("/", h.listVendors)
			r.Route("/{vendorID}", func(r chi.Router) {
				r.Get("/", h.getVendor)
				r.Patch("/approve", h.approveVendor)
				r.Patch("/reject", h.rejectVendor)
				r.Post("/approval", h.reviewVendor)
				r.Get("/risk-score", h.calculateRisk)
				r.Post("/documents", h.uploadDocument)
				r.Get("/documents", h.listDocuments)
				r.Get("/documents/{documentID}/content", h.downloadDocument)
				r.Post("/flags", h.openFlag)
				r.Get("/flags", h.listFlags)
			})
		})
		r.Post("/flags/{flagID}/resolve", h.resolveFlag)
		r.Get("/audits", h.listAuditLogs)
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	logging.Info(ctx, "http server listening", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err, "http server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
