package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/intake/internal/brief"
	"github.com/MikeSquared-Agency/intake/internal/conversation"
	"github.com/MikeSquared-Agency/intake/internal/observability"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

// Chatter runs a chat turn.
type Chatter interface {
	Handle(ctx context.Context, req conversation.Request) (*conversation.Result, error)
	PolicyName() string
}

// Submitter delivers briefs and lists past deliveries.
type Submitter interface {
	Submit(ctx context.Context, sub brief.Submission) (brief.Receipt, error)
	Recent(ctx context.Context, limit int) ([]store.Brief, error)
	Configured() bool
}

type Options struct {
	Port           int
	AllowedOrigins []string
	// APIToken guards the /api/v1 routes when set.
	APIToken     string
	Provider     string
	Model        string
	StoreBackend string
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
}

type Server struct {
	router   *chi.Mux
	http     *http.Server
	chat     Chatter
	briefs   Submitter
	metrics  *observability.Metrics
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
	started  time.Time
}

func NewServer(chat Chatter, briefs Submitter, metrics *observability.Metrics, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(corsHandler(opts.AllowedOrigins))

	s := &Server{
		router:  router,
		chat:    chat,
		briefs:  briefs,
		metrics: metrics,
		opts:    opts,
		logger:  logger,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(opts.AllowedOrigins, r.Header.Get("Origin"))
			},
		},
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/", s.root)
	router.Get("/health", s.health)
	if opts.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	router.Post("/api/chat", s.handleChat)
	router.Get("/api/chat/ws", s.handleChatWS)
	router.Post("/api/submit-brief", s.handleSubmitBrief)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(opts.APIToken))
		r.Get("/intake/status", s.status)
		r.Get("/briefs", s.listBriefs)
	})

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "intake",
		"status":  "running",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"agent":              "intake",
		"status":             "ok",
		"provider":           s.opts.Provider,
		"model":              s.opts.Model,
		"readiness_policy":   s.chat.PolicyName(),
		"webhook_configured": s.briefs.Configured(),
		"store":              s.opts.StoreBackend,
		"uptime_seconds":     int(time.Since(s.started).Seconds()),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is required")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
