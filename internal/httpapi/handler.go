// Package httpapi exposes the catalog and the media query matcher over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/media"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// PictureSummary is a catalog entry as listed by GET /pictures.
type PictureSummary struct {
	Name    string          `json:"name"`
	Alt     string          `json:"alt,omitempty"`
	Sources []SourceSummary `json:"sources"`
}

// SourceSummary is one source candidate of a picture.
type SourceSummary struct {
	Media    string `json:"media,omitempty"`
	Fallback bool   `json:"fallback"`
	File     string `json:"file,omitempty"`
}

// MatchResult is the body of GET /pictures/{name}/match.
type MatchResult struct {
	Picture  string        `json:"picture"`
	Matched  bool          `json:"matched"`
	Media    string        `json:"media,omitempty"`
	Fallback bool          `json:"fallback"`
	Art      string        `json:"art,omitempty"`
	Alt      string        `json:"alt,omitempty"`
	Context  media.Context `json:"context"`
}

// Match selects p's source for ctx. Without a selection the result carries
// the picture's alt text.
func Match(p catalog.Picture, ctx media.Context) MatchResult {
	result := MatchResult{Picture: p.Name, Context: ctx}
	selected, ok := media.Select(p.Sources(), ctx)
	if !ok {
		result.Alt = p.Alt
		return result
	}
	result.Matched = true
	result.Media = selected.Media
	result.Fallback = selected.IsFallback()
	result.Art = selected.SrcSet.Text
	return result
}

// Handler serves the picture API from a catalog store.
type Handler struct {
	store            *catalog.Store
	devicePixelRatio float64
	logger           *zap.Logger
}

// NewHandler returns a Handler. devicePixelRatio is used when a match request
// does not pass dpr.
func NewHandler(store *catalog.Store, devicePixelRatio float64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if devicePixelRatio <= 0 {
		devicePixelRatio = media.DefaultDevicePixelRatio
	}
	return &Handler{store: store, devicePixelRatio: devicePixelRatio, logger: logger}
}

func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/pictures", h.listPictures).Methods(http.MethodGet)
	r.HandleFunc("/pictures/{name}/match", h.matchPicture).Methods(http.MethodGet)
	r.HandleFunc("/queries/parse", h.parseQuery).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	r.Use(h.instrument)
	return r
}

// Serve listens on addr until ctx is cancelled.
func (h *Handler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http server starting", zap.String("event", "http_startup"), zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	h.logger.Info("http server stopped", zap.String("event", "http_shutdown"))
	return nil
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		observer := &statusObserver{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(observer, r)
		h.logger.Info("http request",
			zap.String("event", "http_request"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", observer.status),
			zap.Duration("duration", time.Since(started)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

type statusObserver struct {
	http.ResponseWriter
	status int
}

func (o *statusObserver) WriteHeader(status int) {
	o.status = status
	o.ResponseWriter.WriteHeader(status)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "OK")
}

func (h *Handler) listPictures(w http.ResponseWriter, _ *http.Request) {
	pictures := h.store.Current().Pictures()
	out := make([]PictureSummary, 0, len(pictures))
	for _, p := range pictures {
		sources := p.Sources()
		summary := PictureSummary{Name: p.Name, Alt: p.Alt, Sources: make([]SourceSummary, 0, len(sources))}
		for _, s := range sources {
			summary.Sources = append(summary.Sources, SourceSummary{Media: s.Media, Fallback: s.IsFallback(), File: s.SrcSet.File})
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) matchPicture(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, err := h.store.Lookup(name)
	if err != nil {
		h.logRejection(r, "match_picture", "picture_not_found", name)
		writeErr(w, http.StatusNotFound, "PICTURE_NOT_FOUND", "picture is not in the catalog")
		return
	}

	ctx, err := h.matchContext(r)
	if err != nil {
		h.logRejection(r, "match_picture", "bad_query", err.Error())
		writeErr(w, http.StatusBadRequest, "BAD_QUERY", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, Match(p, ctx))
}

func (h *Handler) parseQuery(w http.ResponseWriter, r *http.Request) {
	q, ok := r.URL.Query()["q"]
	if !ok {
		h.logRejection(r, "parse_query", "missing_query", "")
		writeErr(w, http.StatusBadRequest, "BAD_QUERY", "q is required")
		return
	}
	writeJSON(w, http.StatusOK, media.Parse(q[0]))
}

func (h *Handler) matchContext(r *http.Request) (media.Context, error) {
	values := r.URL.Query()

	width, err := readDimension(values.Get("width"), "width", nil)
	if err != nil {
		return media.Context{}, err
	}
	height, err := readDimension(values.Get("height"), "height", nil)
	if err != nil {
		return media.Context{}, err
	}
	deviceWidth, err := readDimension(values.Get("device-width"), "device-width", &width)
	if err != nil {
		return media.Context{}, err
	}
	deviceHeight, err := readDimension(values.Get("device-height"), "device-height", &height)
	if err != nil {
		return media.Context{}, err
	}

	ratio := h.devicePixelRatio
	if raw := strings.TrimSpace(values.Get("dpr")); raw != "" {
		ratio, err = strconv.ParseFloat(raw, 64)
		if err != nil || !finite(ratio) || ratio <= 0 {
			return media.Context{}, fmt.Errorf("dpr must be a positive number")
		}
	}

	scheme, err := media.ParseColorScheme(values.Get("scheme"))
	if err != nil {
		return media.Context{}, err
	}

	return media.NewContext(
		media.Size{Width: width, Height: height},
		media.Size{Width: deviceWidth, Height: deviceHeight},
		scheme,
		ratio,
	), nil
}

// readDimension parses a non-negative pixel count. An empty value takes
// fallback; without one it is an error.
func readDimension(raw, key string, fallback *float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback != nil {
			return *fallback, nil
		}
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}
	return v, nil
}

// finite rejects the NaN and Inf spellings strconv.ParseFloat accepts.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (h *Handler) logRejection(r *http.Request, operation, reason, details string) {
	h.logger.Warn("http request rejected",
		zap.String("event", "http_request_rejected"),
		zap.String("operation", operation),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
		zap.String("details", details),
		zap.String("remote", r.RemoteAddr),
	)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message, "status": strconv.Itoa(status)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
