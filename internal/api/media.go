package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/models"
	"github.com/flavien-hugs/unsta-sfs/internal/service"
	"github.com/flavien-hugs/unsta-sfs/internal/store"

	"github.com/go-chi/chi/v5"
)

// uploadMedia accepts one multipart file plus its attributes and answers 202
// with the stored record. The write to the object store happens before the
// metadata insert, so a failed request never leaves a dangling record.
func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, s.log, service.E(service.CodeInvalidFile, http.StatusBadRequest, "invalid multipart body: %s", err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, s.log, service.E(service.CodeInvalidFile, http.StatusBadRequest, "missing file field"))
		return
	}
	defer file.Close()

	tags, err := service.ParseTags(r.FormValue("tags"))
	if err != nil {
		respondError(w, s.log, err)
		return
	}

	var ttl *int
	if raw := r.FormValue("ttl_minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, s.log, service.E(service.CodeInvalidFile, http.StatusBadRequest, "ttl_minutes must be a non-negative integer"))
			return
		}
		ttl = &n
	}

	rec, err := s.media.Upload(r.Context(), service.UploadInput{
		BucketName:  r.FormValue("bucket_name"),
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Tags:        tags,
		IsPublic:    r.FormValue("is_public") == "true",
		TTLMinutes:  ttl,
	})
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusAccepted, rec)
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.MediaFilter{
		BucketName: q.Get("bucket_name"),
		Filename:   q.Get("filename"),
	}
	if raw := q.Get("is_public"); raw != "" {
		public := raw == "true"
		f.Public = &public
	}
	if raw := q.Get("tags"); raw != "" {
		tags, err := service.ParseTags(raw)
		if err != nil {
			respondError(w, s.log, err)
			return
		}
		f.Tags = tags
	}
	items, err := s.media.List(r.Context(), f, sortDesc(r))
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// readMedia streams the object bytes; ?download=true spools through a temp
// file and sets an attachment disposition instead.
func (s *Server) readMedia(w http.ResponseWriter, r *http.Request) {
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "key")

	var (
		body        io.ReadCloser
		rec         *models.Media
		contentType string
		size        int64
		err         error
	)
	if r.URL.Query().Get("download") == "true" {
		body, rec, contentType, size, err = s.media.Download(r.Context(), bucket, key)
	} else {
		body, rec, contentType, size, err = s.media.Read(r.Context(), bucket, key)
	}
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if r.URL.Query().Get("download") == "true" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": rec.Filename}))
	}
	_, _ = io.Copy(w, body)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "key")
	if err := s.media.Delete(r.Context(), bucket, key); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Media '" + key + "' deleted successfully."})
}

// readPublicMedia serves an object without authentication, only when its
// record is flagged public and its TTL window has not elapsed.
func (s *Server) readPublicMedia(w http.ResponseWriter, r *http.Request) {
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "key")
	if _, err := s.public.Find(r.Context(), bucket, key, time.Now()); err != nil {
		respondError(w, s.log, err)
		return
	}
	body, _, contentType, size, err := s.media.Read(r.Context(), bucket, key)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, body)
}
