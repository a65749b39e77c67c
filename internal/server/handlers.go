package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleRecommendProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, limit, ok := s.parseRecommendParams(w, r, s.engine.DefaultProductLimit())
	if !ok {
		return
	}
	s.logger.Debug("product recommendation request", zap.Int64("user_id", userID), zap.Int("limit", limit))
	products, err := s.engine.RecommendProducts(r.Context(), userID, limit)
	if err != nil {
		s.respondEngineError(w, r, "product recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.ProductRecommendationResponse{
		ResponseTime: time.Since(start).Seconds(),
		UserID:       userID,
		Products:     products,
	})
}

func (s *Server) handleRecommendStores(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, limit, ok := s.parseRecommendParams(w, r, s.engine.DefaultStoreLimit())
	if !ok {
		return
	}
	s.logger.Debug("store recommendation request", zap.Int64("user_id", userID), zap.Int("limit", limit))
	stores, err := s.engine.RecommendStores(r.Context(), userID, limit)
	if err != nil {
		s.respondEngineError(w, r, "store recommendation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.StoreRecommendationResponse{
		ResponseTime: time.Since(start).Seconds(),
		UserID:       userID,
		Stores:       stores,
	})
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := parseUserID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := s.engine.UserProfile(r.Context(), userID)
	if err != nil {
		s.respondEngineError(w, r, "user profile failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, &models.UserProfileResponse{
		ResponseTime: time.Since(start).Seconds(),
		UserProfile:  profile,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := s.storage.CountProducts(ctx)
	if err != nil {
		s.logger.Error("status: count products failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	stores, err := s.storage.CountStores(ctx)
	if err != nil {
		s.logger.Error("status: count stores failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	users, err := s.storage.CountUsersWithPreferences(ctx)
	if err != nil {
		s.logger.Error("status: count users failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resp := map[string]interface{}{
		"products":               products,
		"stores":                 stores,
		"users_with_preferences": users,
	}

	rc := s.config.Recommend
	resp["config"] = map[string]interface{}{
		"strategy":              s.engine.StrategyType(),
		"store_mapping":         s.engine.StoreMapping(),
		"neighbors":             rc.Neighbors,
		"backfill":              rc.BackfillOrDefault(),
		"default_product_limit": rc.DefaultProductLimit,
		"default_store_limit":   rc.DefaultStoreLimit,
		"max_limit":             rc.MaxLimit,
		"database_path":         s.config.Storage.DatabasePath,
		"import_directories":    s.config.Import.Directories,
	}
	if size, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
		resp["database_size_bytes"] = size
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// parseRecommendParams reads user_id (required) and limit (optional, defaultLimit when
// absent) from the query string. It writes a 400 response and returns ok=false when either
// is invalid.
func (s *Server) parseRecommendParams(w http.ResponseWriter, r *http.Request, defaultLimit int) (userID int64, limit int, ok bool) {
	limit = defaultLimit
	q := r.URL.Query()
	userID, err := parseUserID(q.Get("user_id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, 0, false
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return 0, 0, false
		}
	}
	return userID, limit, true
}

func parseUserID(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("user_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("user_id must be an integer")
	}
	return id, nil
}

func (s *Server) respondEngineError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg, zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
	if errors.Is(err, recommend.ErrDataSourceUnavailable) {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
