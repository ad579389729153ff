package api

import (
	"encoding/json"
	"net/http"

	"github.com/flavien-hugs/unsta-sfs/internal/service"
	"github.com/flavien-hugs/unsta-sfs/internal/store"

	"github.com/go-chi/chi/v5"
)

func (s *Server) registerBuckets(r chi.Router) {
	r.Post("/buckets", s.createBucket)
	r.Get("/buckets", s.listBuckets)
	r.Get("/buckets/{name}", s.getBucket)
	r.Delete("/buckets/{name}", s.deleteBucket)
}

func (s *Server) createBucket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, s.log, service.E(service.CodeInvalidName, http.StatusBadRequest, "invalid request body: %v", err))
		return
	}
	rec, err := s.buckets.Create(r.Context(), in.Name, in.Description)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	f := store.BucketFilter{
		Name:        r.URL.Query().Get("name"),
		Description: r.URL.Query().Get("description"),
	}
	items, err := s.buckets.List(r.Context(), f, sortDesc(r))
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) getBucket(w http.ResponseWriter, r *http.Request) {
	createIfMissing := r.URL.Query().Get("create_bucket_if_not_exist") == "true"
	rec, err := s.buckets.GetOrCreate(r.Context(), chi.URLParam(r, "name"), createIfMissing)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.buckets.Delete(r.Context(), name); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Bucket '" + name + "' deleted successfully."})
}

// sortDesc defaults to newest-first; ?sort=asc flips it.
func sortDesc(r *http.Request) bool {
	return r.URL.Query().Get("sort") != "asc"
}
