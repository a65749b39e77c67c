package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, configure ...func(*config.Config)) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	products := []*models.Product{
		{ID: 1, UserID: 10, Name: models.StringPtr("red wood chair")},
		{ID: 2, UserID: 20, Name: models.StringPtr("blue wood chair")},
		{ID: 3, UserID: 30, Name: models.StringPtr("red metal lamp")},
	}
	stores := []*models.Store{
		{ID: 101, UserID: 10, Name: models.StringPtr("Casa Roja"), District: models.StringPtr("Centro")},
		{ID: 102, UserID: 20, Name: models.StringPtr("Casa Azul"), District: models.StringPtr("Centro")},
		{ID: 103, UserID: 30, Name: models.StringPtr("Taller"), District: models.StringPtr("Norte")},
	}
	if err := store.UpsertProducts(ctx, products); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertStores(ctx, stores); err != nil {
		t.Fatal(err)
	}
	if err := store.SetUserPreferences(ctx, 7, []int64{1}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Storage: config.StorageConfig{DatabasePath: dbPath}}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = dbPath
	for _, fn := range configure {
		fn(cfg)
	}
	opts, err := recommend.OptionsFromConfig(&cfg.Recommend)
	if err != nil {
		t.Fatal(err)
	}
	engine := recommend.NewEngine(store, opts, zap.NewNop())
	return NewServer(engine, store, cfg, zap.NewNop()), store
}

func TestHandleRecommendProducts(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/products?user_id=7&limit=1", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out models.ProductRecommendationResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.UserID != 7 {
		t.Errorf("user_id: got %d", out.UserID)
	}
	if len(out.Products) != 1 || out.Products[0].ID != 2 {
		t.Errorf("products: got %+v", out.Products)
	}
}

func TestHandleRecommendProducts_UnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/products?user_id=999", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Products == nil || len(out.Products) != 0 {
		t.Errorf("expected an empty products array, got %v", out.Products)
	}
}

func TestHandleRecommendProducts_LimitDefaults(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) { cfg.Recommend.DefaultProductLimit = 1 })
	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/recommendations/products?user_id=7", 1},
		{"/api/v1/recommendations/products?user_id=7&limit=2", 2},
		{"/api/v1/recommendations/products?user_id=7&limit=0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
			}
			var out models.ProductRecommendationResponse
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if len(out.Products) != tt.want {
				t.Errorf("products: got %d, want %d", len(out.Products), tt.want)
			}
		})
	}
}

func TestHandleRecommendStores(t *testing.T) {
	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/stores?user_id=7&limit=5", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out models.StoreRecommendationResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Stores) != 2 {
		t.Fatalf("stores: got %+v", out.Stores)
	}
	for _, s := range out.Stores {
		if s.ID == 101 {
			t.Error("base store returned")
		}
	}
}

func TestHandleRecommend_BadParams(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, target := range []string{
		"/api/v1/recommendations/products",
		"/api/v1/recommendations/products?user_id=abc",
		"/api/v1/recommendations/stores?user_id=7&limit=-1",
		"/api/v1/recommendations/stores?user_id=7&limit=x",
		"/api/v1/users/abc/profile",
	} {
		t.Run(target, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["error"] == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestHandleRecommend_DataSourceUnavailable(t *testing.T) {
	srv, store := newTestServer(t)
	store.Close()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/products?user_id=7", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestHandleUserProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/7/profile", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var out models.UserProfileResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.UserProfile == nil || out.UserID != 7 {
		t.Fatalf("unexpected profile: %+v", out)
	}
	if len(out.Preferences.Products) != 1 || out.Preferences.Products[0].ID != 1 {
		t.Errorf("preference products: got %+v", out.Preferences.Products)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Products int64                  `json:"products"`
		Stores   int64                  `json:"stores"`
		Users    int64                  `json:"users_with_preferences"`
		Config   map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Products != 3 || out.Stores != 3 || out.Users != 1 {
		t.Errorf("counts: got %+v", out)
	}
	if out.Config["strategy"] != "knn" || out.Config["store_mapping"] != "narrow" {
		t.Errorf("config: got %v", out.Config)
	}
}

func TestHandleHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, target := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: got %d", target, w.Code)
		}
	}
}

func TestHandler_RateLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.Server.RateLimitPerMinute = 1
	h := srv.Handler()
	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/products?user_id=7", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes: got %v", codes)
	}
}
