package httpserver

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// pathVar returns the decoded route variable, empty when it cannot be decoded
func pathVar(r *http.Request, name string) string {
	raw := mux.Vars(r)[name]
	value, err := url.PathUnescape(raw)
	if err != nil {
		return ""
	}
	return value
}

// handleGet handles GET /api/cache/{key}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := pathVar(r, "key")
	if key == "" {
		s.writeText(w, http.StatusInternalServerError, "No key provided")
		return
	}

	entry, found, err := s.cacheService.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("Cache API get failed", zap.String("key", key), zap.Error(err))
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		s.writeText(w, http.StatusNotFound, "No data at key: "+key)
		return
	}

	s.writeResponse(w, entry)
}

// handleSet handles POST /api/cache/{key}
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	key := pathVar(r, "key")
	if key == "" {
		s.writeText(w, http.StatusInternalServerError, "No key provided")
		return
	}

	var req SetRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeText(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Content == nil {
		s.writeText(w, http.StatusInternalServerError, "You must provide content.")
		return
	}
	if req.MaxAge == nil || *req.MaxAge <= 0 {
		s.writeText(w, http.StatusInternalServerError, "You must provide maxAge.")
		return
	}

	if err := s.cacheService.Set(r.Context(), key, []byte(*req.Content), *req.MaxAge, req.Tags); err != nil {
		s.logger.Warn("Cache API set failed", zap.String("key", key), zap.Error(err))
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeText(w, http.StatusOK, "Key "+key+" set.")
}

// handleDelete handles DELETE /api/cache/{key}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := pathVar(r, "key")
	if key == "" {
		s.writeText(w, http.StatusInternalServerError, "No key provided")
		return
	}

	if err := s.cacheService.Delete(r.Context(), key); err != nil {
		s.logger.Warn("Cache API delete failed", zap.String("key", key), zap.Error(err))
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeText(w, http.StatusOK, "Key "+key+" deleted.")
}

// handlePurgeTag handles DELETE /api/cache/tags/{tag}
func (s *Server) handlePurgeTag(w http.ResponseWriter, r *http.Request) {
	tag := pathVar(r, "tag")
	if tag == "" {
		s.writeText(w, http.StatusInternalServerError, "No tag provided")
		return
	}

	if err := s.cacheService.PurgeTag(r.Context(), tag); err != nil {
		s.logger.Warn("Cache API purge failed", zap.String("tag", tag), zap.Error(err))
		s.writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeText(w, http.StatusOK, "Tag "+tag+" purged.")
}
