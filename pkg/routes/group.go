package routes

import (
	"net/http"
	"time"
)

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Observer receives the outcome of every request served by an
// instrumented route.
type Observer interface {
	ObserveRoute(pattern string, status int, d time.Duration)
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	Instrument(mux, nil, groups...)
}

// Instrument adds all routes from the given groups to the mux and reports
// each request to obs under its full pattern. A nil obs registers the
// handlers unwrapped.
func Instrument(mux *http.ServeMux, obs Observer, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, obs, "", group)
	}
}

func registerGroup(mux *http.ServeMux, obs Observer, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, observe(obs, pattern, route.Handler))
	}
	for _, child := range group.Children {
		registerGroup(mux, obs, fullPrefix, child)
	}
}

func observe(obs Observer, pattern string, next http.HandlerFunc) http.HandlerFunc {
	if obs == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		obs.ObserveRoute(pattern, sw.status, time.Since(start))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
