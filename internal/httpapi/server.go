package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

// Server exposes the read-only status surface. There are no mutating
// routes: services come from the bootstrap file and incidents are owned
// by the monitor.
type Server struct {
	Logger    *zap.Logger
	Services  repo.ServiceStore
	Incidents repo.IncidentStore
}

func NewServer(l *zap.Logger, ss repo.ServiceStore, is repo.IncidentStore) *Server {
	return &Server{Logger: l, Services: ss, Incidents: is}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/services", s.handleListServices)
	r.Get("/api/services/{id}/samples", s.handleServiceSamples)
	r.Get("/api/incidents", s.handleListIncidents)

	return r
}

type serviceView struct {
	ID       domain.ServiceID `json:"id"`
	Name     string           `json:"name"`
	Target   string           `json:"target"`
	Kind     string           `json:"kind"`
	IsOnline bool             `json:"is_online"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.Services.List(r.Context())
	if err != nil {
		s.Logger.Warn("api_list_services_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	out := make([]serviceView, 0, len(services))
	for _, svc := range services {
		kind, _ := domain.ParseTarget(svc.Target)
		out = append(out, serviceView{
			ID:       svc.ID,
			Name:     svc.Name,
			Target:   svc.Target,
			Kind:     kind.String(),
			IsOnline: svc.IsOnline,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleServiceSamples(w http.ResponseWriter, r *http.Request) {
	id := domain.ServiceID(chi.URLParam(r, "id"))

	limit := 60
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	samples, err := s.Services.RecentSamples(r.Context(), id, limit)
	if err != nil {
		http.Error(w, "unknown service", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"service_id": id, "samples": samples})
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	var (
		incidents []domain.Incident
		err       error
	)
	if r.URL.Query().Get("open") == "1" {
		incidents, err = s.Incidents.ListOpen(r.Context())
	} else {
		incidents, err = s.Incidents.ListAll(r.Context())
	}
	if err != nil {
		s.Logger.Warn("api_list_incidents_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if incidents == nil {
		incidents = []domain.Incident{}
	}
	writeJSON(w, incidents)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
