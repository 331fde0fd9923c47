package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"timelane/internal/config"
	"timelane/internal/layout"
	appLog "timelane/internal/log"
	"timelane/internal/model"
	"timelane/internal/render"
	"timelane/internal/store"
)

// Server exposes the item store over a small JSON API.
type Server struct {
	cfg   *config.Config
	store *store.Store
	mux   *http.ServeMux

	// Layout of the last seen store version. Lanes only change when the
	// store does, so /api/timeline reuses it until the version moves.
	timelineMu    sync.RWMutex
	timelineCache *timelineCache
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// An empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="timelane", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves the API on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, st *store.Store) error {
	s := NewServer(cfg, st)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/timeline", s.handleTimeline)
	s.mux.HandleFunc("GET /api/items", s.handleListItems)
	s.mux.HandleFunc("POST /api/items", s.handleAddItem)
	s.mux.HandleFunc("PATCH /api/items/{id}", s.handleRenameItem)
	s.mux.HandleFunc("POST /api/items/{id}/move", s.handleMoveItem)
	s.mux.HandleFunc("POST /api/zoom/in", s.handleZoom(s.store.ZoomIn))
	s.mux.HandleFunc("POST /api/zoom/out", s.handleZoom(s.store.ZoomOut))
	s.mux.HandleFunc("DELETE /api/errors/{index}", s.handleDismissError)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// placedItemDTO is an item together with where it is drawn.
type placedItemDTO struct {
	model.Item
	Lane     int                 `json:"lane"`
	Color    string              `json:"color"`
	Position layout.ItemPosition `json:"position"`
}

// timelineResponse is the JSON response shape for /api/timeline.
type timelineResponse struct {
	Version    uint64                  `json:"version"`
	Calendar   *layout.Calendar        `json:"calendar"`
	Lanes      [][]placedItemDTO       `json:"lanes"`
	Errors     []layout.CollisionError `json:"errors"`
	Banner     []store.BannerEntry     `json:"banner"`
	Zoom       float64                 `json:"zoom"`
	LaneColors []string                `json:"lane_colors"`
}

// timelineCache holds the store-derived part of a timeline response.
type timelineCache struct {
	version  uint64
	calendar *layout.Calendar
	lanes    [][]placedItemDTO
	errors   []layout.CollisionError
}

// handleTimeline returns the calendar, the lanes with their positions, the
// layout collisions and the live banner.
//
// GET /api/timeline
func (s *Server) handleTimeline(w http.ResponseWriter, _ *http.Request) {
	tc, err := s.timeline()
	if err != nil {
		appLog.Error("api timeline: layout failed", err)
		writeError(w, http.StatusInternalServerError, "failed to lay out timeline")
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse{
		Version:    tc.version,
		Calendar:   tc.calendar,
		Lanes:      tc.lanes,
		Errors:     tc.errors,
		Banner:     s.store.Banner(),
		Zoom:       s.store.Zoom(),
		LaneColors: render.LaneColors,
	})
}

func (s *Server) timeline() (*timelineCache, error) {
	version := s.store.Version()

	s.timelineMu.RLock()
	tc := s.timelineCache
	s.timelineMu.RUnlock()
	if tc != nil && tc.version == version {
		return tc, nil
	}

	snap, err := s.store.Layout()
	switch {
	case errors.Is(err, layout.ErrEmptyInput):
		tc = &timelineCache{
			version: snap.Version,
			lanes:   [][]placedItemDTO{},
			errors:  []layout.CollisionError{},
		}
	case err != nil:
		return nil, err
	default:
		tc = &timelineCache{
			version:  snap.Version,
			calendar: &snap.Calendar,
			lanes:    make([][]placedItemDTO, 0, len(snap.Assignment.Lanes)),
			errors:   snap.Assignment.Errors,
		}
		for i, lane := range snap.Assignment.Lanes {
			row := make([]placedItemDTO, 0, len(lane))
			for _, it := range lane {
				pos, err := layout.PositionOf(it, snap.Calendar.Segments)
				if err != nil {
					return nil, err
				}
				row = append(row, placedItemDTO{Item: it, Lane: i, Color: render.LaneColor(i), Position: pos})
			}
			tc.lanes = append(tc.lanes, row)
		}
	}

	s.timelineMu.Lock()
	s.timelineCache = tc
	s.timelineMu.Unlock()
	appLog.Debug("api timeline: layout rebuilt", "version", tc.version, "lanes", len(tc.lanes))
	return tc, nil
}

// GET /api/items
func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Items())
}

// POST /api/items {"id"?, "name", "start", "end"}
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var it model.Item
	if err := decodeJSON(w, r, &it); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	it.Source = ""

	added, err := s.store.Add(it)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

type renameRequest struct {
	Name string `json:"name"`
}

// PATCH /api/items/{id} {"name"}
func (s *Server) handleRenameItem(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	it, err := s.store.Rename(r.PathValue("id"), req.Name)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// moveRequest locates the drop point either as a fraction of the timeline
// width or as a pixel position inside a container of known width.
type moveRequest struct {
	PointerFraction *float64 `json:"pointer_fraction"`
	PixelX          *float64 `json:"pixel_x"`
	ContainerWidth  float64  `json:"container_width"`
	Zoom            float64  `json:"zoom"`
}

func (m moveRequest) fraction() (float64, error) {
	switch {
	case m.PointerFraction != nil:
		return *m.PointerFraction, nil
	case m.PixelX != nil && m.ContainerWidth > 0:
		return layout.PointerFraction(*m.PixelX, m.ContainerWidth), nil
	case m.PixelX != nil:
		return 0, errors.New("container_width must be positive")
	}
	return 0, errors.New("pointer_fraction or pixel_x is required")
}

// handleMoveItem drops an item at a new position. An accepted move answers
// 200 with the committed item; a rejected one answers 409 with the
// collisions, which also land in the banner.
//
// POST /api/items/{id}/move
func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fraction, err := req.fraction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.store.Move(r.PathValue("id"), fraction, req.Zoom)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !res.Accepted {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type zoomResponse struct {
	Zoom float64 `json:"zoom"`
}

func (s *Server) handleZoom(step func() float64) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, zoomResponse{Zoom: step()})
	}
}

// DELETE /api/errors/{index}
func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	idx := parseIntDefault(r.PathValue("index"), -1)
	if err := s.store.Dismiss(idx); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeStoreError maps store and layout errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrItemNotFound), errors.Is(err, store.ErrNoBanner):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrBlankName),
		errors.Is(err, model.ErrInvalidItem),
		errors.Is(err, layout.ErrInvalidZoom),
		errors.Is(err, layout.ErrInvalidPointer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
