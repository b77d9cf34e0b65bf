// Package fixture serves a small conference agenda application with
// bookmarkable proposals. The suite can be pointed at it locally (`serve`)
// and the page drivers are tested against it.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownGracePeriod = 5 * time.Second

// MaxSeed bounds how many proposals /api/reset generates.
const MaxSeed = 10000

// Server is the fixture agenda web application.
type Server struct {
	catalogue *Catalogue
	logger    *zap.Logger
	title     string
	mux       *http.ServeMux
}

// NewServer creates a server over the given catalogue.
func NewServer(catalogue *Catalogue, logger *zap.Logger) *Server {
	s := &Server{
		catalogue: catalogue,
		logger:    logger.Named("fixture"),
		title:     "Conference Agenda",
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /agenda", s.handleAgenda)
	s.mux.HandleFunc("POST /agenda/proposals/{id}/bookmark", s.handleBookmark)
	s.mux.HandleFunc("GET /api/proposals", s.handleListProposals)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/agenda", http.StatusFound)
	})
}

// Catalogue exposes the backing catalogue.
func (s *Server) Catalogue() *Catalogue { return s.catalogue }

// ServeHTTP implements http.Handler with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("Request served",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("elapsed", time.Since(start)))
}

// Run listens on addr and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Fixture agenda listening.", zap.String("addr", ln.Addr().String()), zap.Int("proposals", s.catalogue.Len()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fixture server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		s.logger.Info("Shutting down fixture agenda.")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title     string
		Proposals []schemas.ProposalSnapshot
	}{Title: s.title, Proposals: s.catalogue.List()}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := agendaTemplate.Execute(w, data); err != nil {
		s.logger.Error("Failed to render agenda.", zap.Error(err))
	}
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalogue.List())
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	bookmarked, err := parseBookmarkRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := s.catalogue.SetBookmarked(id, bookmarked)
	if errors.Is(err, ErrUnknownProposal) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debug("Bookmark updated.", zap.String("proposal_id", id), zap.Bool("bookmarked", bookmarked))

	if wantsJSON(r) {
		s.writeJSON(w, http.StatusOK, updated)
		return
	}
	http.Redirect(w, r, "/agenda", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	n := s.catalogue.Len()
	if v := query.Get("seed"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > MaxSeed {
			http.Error(w, fmt.Sprintf("seed must be an integer between 0 and %d", MaxSeed), http.StatusBadRequest)
			return
		}
		n = parsed
	}
	bookmarked := false
	if v := query.Get("bookmarked"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "bookmarked must be true or false", http.StatusBadRequest)
			return
		}
		bookmarked = parsed
	}

	s.catalogue.Replace(Seed(n, bookmarked))
	s.writeJSON(w, http.StatusOK, s.catalogue.List())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response.", zap.Error(err))
	}
}

// parseBookmarkRequest reads the target state from a JSON body or a form.
func parseBookmarkRequest(r *http.Request) (bool, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body schemas.BookmarkUpdate
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("invalid JSON body: %w", err)
		}
		return body.Bookmarked, nil
	}
	if err := r.ParseForm(); err != nil {
		return false, fmt.Errorf("invalid form body: %w", err)
	}
	b, err := strconv.ParseBool(r.PostForm.Get("bookmarked"))
	if err != nil {
		return false, fmt.Errorf("bookmarked must be true or false")
	}
	return b, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
