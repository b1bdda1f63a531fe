// Package api serves planning and simulation over HTTP, with a websocket stream of robot poses
// for a rendering client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"rrtnav/field"
	"rrtnav/geometry"
	"rrtnav/planner"
	"rrtnav/scenario"
	"rrtnav/sim"
)

const (
	defaultStoreLimit = 256
	maxBodyBytes      = 4 << 20
	writeWait         = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	// Retries is the number of extra planning attempts after a not-found outcome.
	Retries int
	// Realtime paces streamed frames to the scenario tick duration.
	Realtime bool
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string
	// StoreLimit caps how many plans are kept in memory.
	StoreLimit int
}

// Server is the HTTP API.
type Server struct {
	router   *mux.Router
	store    *planStore
	opts     Options
	clock    clock.Clock
	logger   golog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates the API server and its routes.
func NewServer(opts Options, logger golog.Logger) *Server {
	if opts.StoreLimit <= 0 {
		opts.StoreLimit = defaultStoreLimit
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		router: mux.NewRouter(),
		store:  newPlanStore(opts.StoreLimit),
		opts:   opts,
		clock:  clock.New(),
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.originAllowed(origin)
		},
	}
	s.setupRoutes()
	return s
}

// SetClock replaces the clock used to pace streams.
func (s *Server) SetClock(c clock.Clock) {
	s.clock = c
}

func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/plan", s.handlePlan).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/plans/{id}", s.handleGetPlan).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/plans/{id}/tree", s.handleTree).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/plans/{id}/stream", s.handleStream).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost, http.MethodOptions)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if origin == "" && s.originAllowed("*") {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errchkjson
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

// statusFor maps planning errors to HTTP status codes. A path that was not found is a normal
// outcome and still answers 200.
func statusFor(err error) int {
	switch {
	case err == nil, errors.Is(err, planner.ErrPlanningNotFound):
		return http.StatusOK
	case errors.Is(err, field.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrPlanningCancelled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"plans":  s.store.Len(),
	})
}

// POST /plan
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sc, err := scenario.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Debugw("invalid plan request", "error", err)
		respondError(w, http.StatusBadRequest, err)
		return
	}

	driver, err := sim.NewDriver(sc, sim.Config{Retries: s.opts.Retries}, s.logger)
	if err != nil {
		s.logger.Debugw("invalid scenario", "error", err)
		respondError(w, statusFor(err), err)
		return
	}

	s.logger.Infow("plan request", "start", sc.Start, "goal", sc.Goal, "obstacles", len(sc.Obstacles))
	res, attempts, err := driver.Plan(r.Context())
	resp := newPlanResponse(res, attempts, err)
	if res != nil {
		resp.ID = s.store.Put(&storedPlan{Scenario: sc, Result: res, Attempts: attempts, Created: s.clock.Now()}).String()
	}
	if err != nil && !planner.IsRetryable(err) {
		s.logger.Warnw("planning failed", "error", err)
		respondJSON(w, statusFor(err), resp)
		return
	}
	s.logger.Infow("plan finished", "id", resp.ID, "success", resp.Success, "nodes", resp.Nodes,
		"waypoints", len(resp.Compacted))
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*storedPlan, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.Wrap(err, "invalid plan id"))
		return nil, false
	}
	p, ok := s.store.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, errors.Errorf("plan %s not found", id))
		return nil, false
	}
	return p, true
}

// GET /plans/{id}
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	resp := newPlanResponse(p.Result, p.Attempts, nil)
	resp.ID = p.ID.String()
	respondJSON(w, http.StatusOK, resp)
}

// GET /plans/{id}/tree
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	edges := p.Result.Tree.Edges()
	lines := make([][2]geometry.Point, 0, len(edges))
	for _, e := range edges {
		lines = append(lines, [2]geometry.Point{e.P1, e.P2})
	}
	respondJSON(w, http.StatusOK, TreeResponse{
		ID:        p.ID.String(),
		Lines:     lines,
		NumNodes:  p.Result.Tree.Len(),
		NumEdges:  len(lines),
		Width:     p.Scenario.Width,
		Height:    p.Scenario.Height,
		Obstacles: p.Scenario.Obstacles,
	})
}

// POST /simulate
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	sc := scenario.Default()
	if len(req.Scenario) > 0 {
		var err error
		if sc, err = scenario.Decode(bytes.NewReader(req.Scenario)); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
	}

	driver, err := sim.NewDriver(sc, sim.Config{MaxTicks: req.MaxTicks, Retries: s.opts.Retries}, s.logger)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}

	var trajectory []sim.Frame
	out, err := driver.Run(r.Context(), func(f sim.Frame) error {
		if req.Every <= 1 || f.Tick%req.Every == 0 || f.Status != "stillFollowing" {
			trajectory = append(trajectory, f)
		}
		return nil
	})

	resp := SimulateResponse{Trajectory: trajectory}
	if out != nil {
		resp.Plan = newPlanResponse(out.Plan, out.Attempts, nil)
		resp.Status = out.Status.String()
		resp.Ticks = out.Ticks
		resp.Final = out.Final
	}
	status := http.StatusOK
	if err != nil {
		resp.Message = err.Error()
		if !errors.Is(err, sim.ErrTickLimit) {
			status = statusFor(err)
		}
	}
	s.logger.Infow("simulation finished", "status", resp.Status, "ticks", resp.Ticks, "error", err)
	respondJSON(w, status, resp)
}

// GET /plans/{id}/stream upgrades to a websocket and sends one frame per follower tick.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !p.Result.Found() {
		respondError(w, http.StatusConflict, errors.Errorf("plan %s has no path to follow", p.ID))
		return
	}

	driver, err := sim.NewDriver(p.Scenario, sim.Config{Realtime: s.opts.Realtime}, s.logger)
	if err != nil {
		respondError(w, statusFor(err), err)
		return
	}
	driver.SetClock(s.clock)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugw("failed to close websocket", "error", err)
		}
	}()

	// a read error means the client went away
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg StreamMessage) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	s.logger.Infow("streaming plan", "id", p.ID, "waypoints", len(p.Result.Compacted))
	out, err := driver.Follow(ctx, p.Result.Compacted, func(f sim.Frame) error {
		return send(StreamMessage{Type: "frame", Frame: &f})
	})
	if err != nil {
		s.logger.Debugw("stream ended", "id", p.ID, "error", err)
		//nolint:errcheck
		send(StreamMessage{Type: "error", Error: err.Error()})
		return
	}
	//nolint:errcheck
	send(StreamMessage{Type: "done", Ticks: out.Ticks})
	//nolint:errcheck
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "reached goal"), time.Now().Add(writeWait))
}
