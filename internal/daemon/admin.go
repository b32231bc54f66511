package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
	"git.home.luguber.info/inful/smartcart/internal/metrics"
	"git.home.luguber.info/inful/smartcart/internal/server/middleware"
	"git.home.luguber.info/inful/smartcart/internal/server/responses"
)

// AdminServer exposes health, status, metrics and a checkout trigger.
type AdminServer struct {
	addr         string
	daemon       *Daemon
	logger       *slog.Logger
	errorAdapter *errors.HTTPErrorAdapter
	server       *http.Server
	listener     net.Listener
}

func NewAdminServer(addr string, d *Daemon, logger *slog.Logger) *AdminServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminServer{
		addr:         addr,
		daemon:       d,
		logger:       logger,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// Handler returns the routed, middleware-wrapped admin API.
func (s *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /checkouts", s.handleCheckouts)
	mux.HandleFunc("POST /checkout", s.handleCheckout)
	mux.HandleFunc("POST /catalog/refresh", s.handleCatalogRefresh)
	mux.Handle("GET /metrics", metrics.HTTPHandler(s.daemon.Registry()))
	return middleware.Chain(s.logger, s.errorAdapter)(mux)
}

// Start binds the address before returning so port conflicts fail startup.
func (s *AdminServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to bind admin server").
			WithContext("addr", s.addr).
			Build()
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server failed", logfields.Error(err))
		}
	}()
	s.logger.Info("Admin server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address, useful with port 0.
func (s *AdminServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *AdminServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to stop admin server").Build()
	}
	return nil
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.daemon.PerformHealthChecks(r.Context())
	status := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, status, resp)
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.daemon.StatusReport())
}

func (s *AdminServer) handleCheckouts(w http.ResponseWriter, r *http.Request) {
	p := s.daemon.Projection()
	if p == nil {
		s.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("journal disabled").Build())
		return
	}
	history := p.History()
	if r.URL.Query().Get("pending") == "true" {
		history = p.Pending()
	}
	s.writeJSON(w, r, http.StatusOK, history)
}

func (s *AdminServer) handleCheckout(w http.ResponseWriter, r *http.Request) {
	resp := responses.TriggerResponse{Status: "ignored"}
	if s.daemon.RequestCheckout() {
		resp.Status = "queued"
	}
	resp.Phase = s.daemon.State().Phase().String()
	s.writeJSON(w, r, http.StatusAccepted, resp)
}

func (s *AdminServer) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	s.daemon.RefreshCatalog(r.Context())
	s.writeJSON(w, r, http.StatusOK, map[string]int{"catalog_size": s.daemon.State().CatalogSize()})
}

func (s *AdminServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode response").Build())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// StatusReport is the body of GET /status.
func (d *Daemon) StatusReport() responses.StatusResponse {
	cfg := d.GetConfig()
	view := d.state.Snapshot()
	start := d.GetStartTime()

	resp := responses.StatusResponse{
		Status:      string(d.GetStatus()),
		Phase:       view.Phase.String(),
		CartNumber:  cfg.Cart.Number,
		Lines:       make([]responses.CartLine, 0, len(view.Lines)),
		Total:       cart.FormatMoney(view.Total),
		Currency:    cfg.Cart.Currency,
		CatalogSize: d.state.CatalogSize(),
		Ticks:       d.ticks.Load(),
		StartTime:   start,
		Workers:     d.workers.Running(),
	}
	if !start.IsZero() {
		resp.Uptime = d.clock.Since(start).Seconds()
	}
	for _, l := range view.Lines {
		resp.Lines = append(resp.Lines, responses.CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: cart.FormatMoney(l.UnitPrice),
			Quantity:  l.Quantity,
			Subtotal:  cart.FormatMoney(l.Subtotal()),
		})
	}
	if ns := d.lastTick.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		resp.LastTick = &t
	}
	if next, ok := d.scheduler.NextRun(); ok {
		resp.NextTick = &next
	}
	if c := d.lastCheckout.Load(); c != nil {
		resp.LastCheckout = &responses.CheckoutBrief{
			CheckoutID: c.Outcome.CheckoutID,
			Total:      cart.FormatMoney(c.Outcome.Total),
			Submitted:  c.Outcome.Err == nil,
			Attempts:   c.Outcome.Attempts,
			FinishedAt: c.At,
		}
		if c.Outcome.Err != nil {
			resp.LastCheckout.Error = c.Outcome.Err.Error()
		}
	}
	return resp
}
