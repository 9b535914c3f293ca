// Package debugserver exposes an HTTP endpoint for taking browser screenshots
// while the watcher runs.
package debugserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/cristianoliveira/messenger-mirror/internal/mirror"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
)

// Server serves POST /screenshot/{name}.
type Server struct {
	guard *session.Guard
	dir   string
	log   logging.Logger
}

// New returns a Server saving screenshots under dir. The session is only
// touched while holding guard.
func New(guard *session.Guard, dir string, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	return &Server{guard: guard, dir: dir, log: log.With("component", "debugserver")}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /screenshot/{name}", s.screenshot)
	return mux
}

func (s *Server) screenshot(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !mirror.ValidScreenshotName(name) {
		http.Error(w, "invalid screenshot name", http.StatusBadRequest)
		return
	}
	err := s.guard.Do(func(sess session.Session) error {
		_, err := mirror.SaveScreenshot(sess, s.dir, name)
		return err
	})
	if err != nil {
		s.log.Warn("screenshot failed", "name", name, "err", err)
		http.Error(w, "screenshot failed", http.StatusInternalServerError)
		return
	}
	s.log.Info("screenshot saved", "name", name)
	_, _ = fmt.Fprintf(w, "screenshot saved under %s.png", name)
}

// Start listens on addr and serves until ctx ends. It returns the bound address.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("debug server listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug server stopped", "err", err)
		}
	}()

	bound := ln.Addr().String()
	s.log.Info("debug server started", "addr", bound)
	return bound, nil
}
