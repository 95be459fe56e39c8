package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"intake-backend/internal/config"
	"intake-backend/internal/db"
	"intake-backend/internal/intake"
	"intake-backend/internal/store"
	"intake-backend/internal/types"
	"intake-backend/migrations"
)

const maxBodyBytes = 1 << 20

var errEmptyMessage = errors.New("message is required")

type Server struct {
	router   *chi.Mux
	engine   *intake.Engine
	store    store.TranscriptStore
	cfg      config.Config
	metrics  *PrometheusRecorder
	locks    *sessionLocks
	logger   *slog.Logger
	database *db.DB
}

// NewServer loads the service registry, opens the configured transcript
// store and wires the routes.
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := intake.LoadRegistry(intake.RegistryOptions{
		ServicesDir:    cfg.ServicesDir,
		CatalogFile:    cfg.CatalogFile,
		DefaultService: cfg.DefaultService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}
	logger.Info("service registry loaded", "services", len(reg.Services()), "default", cfg.DefaultService)

	metrics := NewPrometheusRecorder()
	engine, err := intake.NewEngine(reg, intake.Options{
		Locale:          cfg.Locale,
		DefaultCurrency: cfg.DefaultCurrency,
		CacheSize:       cfg.StateCacheSize,
		Recorder:        metrics,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	st, database, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s := newServer(cfg, engine, st, metrics, logger)
	s.database = database
	return s, nil
}

func newServer(cfg config.Config, engine *intake.Engine, st store.TranscriptStore, metrics *PrometheusRecorder, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s := &Server{
		router:  r,
		engine:  engine,
		store:   st,
		cfg:     cfg,
		metrics: metrics,
		locks:   newSessionLocks(),
		logger:  logger,
	}
	r.Use(s.instrument)
	s.routes()
	return s
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.TranscriptStore, *db.DB, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory, "":
		logger.Info("using in-memory transcript store", "maxMessages", cfg.MaxMessages)
		return store.NewMemoryStore(cfg.MaxMessages), nil, nil
	case config.StoreFile:
		fileStore, err := store.NewFileStore(cfg.TranscriptDir, cfg.MaxMessages)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		logger.Info("using file transcript store", "dir", cfg.TranscriptDir)
		return fileStore, nil, nil
	case config.StorePostgres:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("database connection established")
		if err := database.RunMigrations(ctx, migrationSource(cfg.MigrationsDir)); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database migrations completed")
		return store.NewDatabaseStore(database, cfg.MaxMessages), database, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// migrationSource prefers an on-disk migrations directory and falls back
// to the embedded copy.
func migrationSource(dir string) fs.FS {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return os.DirFS(dir)
	}
	return migrations.FS
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/services", s.handleServices)
	s.router.Post("/api/intake/start", s.handleStart)
	s.router.Post("/api/intake/chat", s.handleChat)
	s.router.Post("/api/intake/state", s.handleState)
	s.router.Post("/api/intake/reset", s.handleReset)
	s.router.Get("/api/intake/ws", s.handleChatWS)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the database connection when one is open.
func (s *Server) Close() error {
	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

// RunJanitor purges sessions idle longer than the configured retention
// until ctx is done. It returns immediately when retention is zero.
func (s *Server) RunJanitor(ctx context.Context) {
	if s.cfg.SessionRetention <= 0 {
		return
	}
	every := s.cfg.SessionRetention / 4
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.Purge(ctx, time.Now().Add(-s.cfg.SessionRetention))
			if err != nil {
				s.logger.Error("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("purged idle sessions", "count", n)
			}
		}
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.observeHTTP(route, status)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.HealthCheck(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, types.ServicesResponse{
		Services: s.engine.Registry().Services(),
		Default:  s.cfg.DefaultService,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req types.StartRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	service := strings.TrimSpace(req.Service)
	if service == "" {
		service = s.cfg.DefaultService
	}
	def, err := s.engine.Registry().Lookup(service)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	reply, err := s.engine.Opening(def.ID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open conversation")
		return
	}

	sid := newSessionID()
	unlock := s.locks.lock(sid)
	defer unlock()
	ctx := r.Context()
	if err := s.store.Start(ctx, sid, def.ID); err != nil {
		s.logger.Error("start session failed", "sessionID", sid, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	if err := s.store.Append(ctx, sid, store.Message{Role: intake.RoleAssistant, Content: reply.Render()}); err != nil {
		s.writeStoreError(w, sid, err)
		return
	}
	s.logger.Info("intake session started", "sessionID", sid, "service", def.ID)

	SetSessionCookie(w, sid, s.cfg.CookieSecure)
	w.Header().Set(SessionHeader, sid)
	s.writeJSON(w, http.StatusOK, types.NewChatResponse(sid, def.ID, reply))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := req.SessionID
	if sid == "" {
		sid = getSessionID(r)
	}
	if sid == "" {
		s.writeError(w, http.StatusBadRequest, "no session; call /api/intake/start first")
		return
	}
	resp, err := s.turn(r.Context(), sid, req.Message)
	if err != nil {
		code, msg := s.errorStatus(sid, err)
		s.writeError(w, code, msg)
		return
	}
	w.Header().Set(SessionHeader, sid)
	s.writeJSON(w, http.StatusOK, resp)
}

// turn replays the transcript plus a new user message and stores the
// message with its rendered reply. Turns for one session never overlap.
func (s *Server) turn(ctx context.Context, sid, message string) (types.ChatResponse, error) {
	if !store.ValidSessionID(sid) {
		return types.ChatResponse{}, store.ErrInvalidSessionID
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return types.ChatResponse{}, errEmptyMessage
	}

	unlock := s.locks.lock(sid)
	defer unlock()
	sess, err := s.store.Session(ctx, sid)
	if err != nil {
		return types.ChatResponse{}, err
	}
	history := append(toHistory(sess.Messages), intake.Message{Role: intake.RoleUser, Content: message})
	reply, state, err := s.engine.Respond(sess.Service, history)
	if err != nil {
		return types.ChatResponse{}, fmt.Errorf("replay %s: %w", sess.Service, err)
	}
	// The user turn and its reply are stored together or not at all.
	if err := s.store.Append(ctx, sid,
		store.Message{Role: intake.RoleUser, Content: message},
		store.Message{Role: intake.RoleAssistant, Content: reply.Render()},
	); err != nil {
		return types.ChatResponse{}, err
	}
	s.logger.Debug("intake turn", "sessionID", sid, "service", state.Service, "questionKey", reply.QuestionKey, "done", reply.Done)
	if reply.Done {
		s.logger.Info("proposal generated", "sessionID", sid, "service", state.Service)
	}
	return types.NewChatResponse(sid, state.Service, reply), nil
}

// handleState replays a client-supplied transcript without touching the
// store.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var req types.StateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	service := strings.TrimSpace(req.Service)
	if service == "" {
		service = s.cfg.DefaultService
	}
	for _, m := range req.Messages {
		if m.Role != intake.RoleUser && m.Role != intake.RoleAssistant {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported message role %q", m.Role))
			return
		}
	}
	reply, state, err := s.engine.Respond(service, req.Messages)
	if errors.Is(err, intake.ErrUnknownService) {
		s.writeError(w, http.StatusNotFound, "unknown service")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to replay transcript")
		return
	}
	s.writeJSON(w, http.StatusOK, types.StateResponse{
		State: state,
		Next:  types.NewChatResponse("", state.Service, reply),
	})
}

// handleReset empties the transcript and re-opens the conversation.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := req.SessionID
	if sid == "" {
		sid = getSessionID(r)
	}
	if !store.ValidSessionID(sid) {
		s.writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	unlock := s.locks.lock(sid)
	defer unlock()
	ctx := r.Context()
	sess, err := s.store.Session(ctx, sid)
	if err != nil {
		s.writeStoreError(w, sid, err)
		return
	}
	if err := s.store.Reset(ctx, sid); err != nil {
		s.writeStoreError(w, sid, err)
		return
	}
	reply, err := s.engine.Opening(sess.Service)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open conversation")
		return
	}
	if err := s.store.Append(ctx, sid, store.Message{Role: intake.RoleAssistant, Content: reply.Render()}); err != nil {
		s.writeStoreError(w, sid, err)
		return
	}
	s.logger.Info("intake session reset", "sessionID", sid, "service", sess.Service)

	w.Header().Set(SessionHeader, sid)
	s.writeJSON(w, http.StatusOK, types.NewChatResponse(sid, sess.Service, reply))
}

func toHistory(msgs []store.Message) []intake.Message {
	out := make([]intake.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		out = append(out, intake.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) writeStoreError(w http.ResponseWriter, sid string, err error) {
	code, msg := s.errorStatus(sid, err)
	s.writeError(w, code, msg)
}

// errorStatus maps a turn or store error onto a status code and a message
// safe to show the client. Unexpected errors are logged.
func (s *Server) errorStatus(sid string, err error) (int, string) {
	switch {
	case errors.Is(err, errEmptyMessage):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, store.ErrTranscriptFull):
		return http.StatusConflict, "conversation is too long; please start a new one"
	case errors.Is(err, store.ErrInvalidSessionID):
		return http.StatusBadRequest, "invalid session id"
	case errors.Is(err, intake.ErrUnknownService):
		return http.StatusNotFound, "unknown service"
	}
	s.logger.Error("intake request failed", "sessionID", sid, "error", err)
	return http.StatusInternalServerError, "failed to process message"
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return "s_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// getSessionID retrieves the session ID from cookie, header or query parameter
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get(SessionHeader); sid != "" {
		return sid
	}
	return r.URL.Query().Get("sessionId")
}
