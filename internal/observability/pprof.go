package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/zeal-league/internal/config"
	"github.com/riskibarqy/zeal-league/internal/platform/logging"
)

// DebugServer exposes net/http/pprof on its own listener, away from the
// public API mux.
type DebugServer struct {
	srv    *http.Server
	ln     net.Listener
	done   chan struct{}
	logger *logging.Logger
}

// StartDebugServer binds PPROF_ADDR before returning so a port clash fails
// startup. It returns nil when pprof is disabled; a nil *DebugServer is safe
// to shut down.
func StartDebugServer(cfg config.Config, logger *logging.Logger) (*DebugServer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return nil, fmt.Errorf("listen pprof on %s: %w", cfg.PprofAddr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)

	d := &DebugServer{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		done:   make(chan struct{}),
		logger: logger,
	}
	go d.serve()
	return d, nil
}

func (d *DebugServer) serve() {
	defer close(d.done)
	d.logger.Info("pprof server started", "addr", d.Addr())
	if err := d.srv.Serve(d.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.logger.Error("pprof server failed", "error", err)
	}
}

func (d *DebugServer) Addr() string {
	if d == nil {
		return ""
	}
	return d.ln.Addr().String()
}

func (d *DebugServer) Shutdown(ctx context.Context) error {
	if d == nil {
		return nil
	}
	if err := d.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown pprof server: %w", err)
	}
	<-d.done
	d.logger.Info("pprof server stopped")
	return nil
}
