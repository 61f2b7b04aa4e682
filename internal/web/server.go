package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/landreg-pipeline/internal/dataset"
)

// Config holds the web server settings.
type Config struct {
	Host    string
	Port    int
	DataDir string
}

// Server serves the geomerge outputs over a read-only HTTP API.
type Server struct {
	config     Config
	httpServer *http.Server
	router     *mux.Router

	districts *dataset.FeatureFile
	byCode    map[string]int
}

// NewServer loads the final district snapshot from the data directory and
// sets up the routes.
func NewServer(config Config) (*Server, error) {
	path := filepath.Join(config.DataDir, "district_socio_economic.geojson")
	districts, err := dataset.ReadFeatureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load district snapshot: %w", err)
	}

	s := &Server{config: config, districts: districts}
	s.indexDistricts()
	s.router = newRouter(s)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) indexDistricts() {
	s.byCode = map[string]int{}
	for i, f := range s.districts.Features {
		if code, ok := f.Properties["postcode_district"].(string); ok {
			s.byCode[code] = i
		}
	}
}

// newRouter wires the API routes; split out so tests can drive the handlers
// without a listener.
func newRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogging)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/districts", s.listDistricts).Methods("GET")
	api.HandleFunc("/districts/geojson", s.getGeoJSON).Methods("GET")
	api.HandleFunc("/districts/{code}", s.getDistrict).Methods("GET")
	api.HandleFunc("/stats", s.getStats).Methods("GET")
	return r
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		fmt.Printf("%s %s (%v)\n", r.Method, r.URL.Path, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// listDistricts returns the properties of every district row, without
// geometry.
func (s *Server) listDistricts(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]interface{}, 0, len(s.districts.Features))
	for _, f := range s.districts.Features {
		out = append(out, f.Properties)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDistrict(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	i, ok := s.byCode[code]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown district " + code})
		return
	}
	writeJSON(w, http.StatusOK, s.districts.Features[i].Properties)
}

func (s *Server) getGeoJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.districts)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	var transactions float64
	for _, f := range s.districts.Features {
		if n, ok := f.Properties["num_transactions"].(float64); ok {
			transactions += n
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"districts":    len(s.districts.Features),
		"transactions": transactions,
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}

	fmt.Println("Server stopped")
	return nil
}
