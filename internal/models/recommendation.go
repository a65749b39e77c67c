package models

// Source values for StoreRecommendation.
const (
	SourceRanked   = "ranked"
	SourceBackfill = "backfill"
)

// ProductRecommendation is a single recommended product. Product is nil unless details
// are enabled.
type ProductRecommendation struct {
	ID      int64    `json:"id"`
	Score   float64  `json:"score"`
	Product *Product `json:"product,omitempty"`
}

// StoreRecommendation is a single recommended store. Source tells ranked entries apart
// from entries added by backfill. Linked is set when the store's owner sells one of the
// products the ranking was seeded from.
type StoreRecommendation struct {
	ID     int64   `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Linked bool    `json:"linked"`
	Store  *Store  `json:"store,omitempty"`
}

// ProductRecommendationResponse is the response for a product recommendation request.
type ProductRecommendationResponse struct {
	ResponseTime float64                  `json:"response_time_seconds"`
	UserID       int64                    `json:"user_id"`
	Products     []*ProductRecommendation `json:"products"`
}

// StoreRecommendationResponse is the response for a store recommendation request.
type StoreRecommendationResponse struct {
	ResponseTime float64                `json:"response_time_seconds"`
	UserID       int64                  `json:"user_id"`
	Stores       []*StoreRecommendation `json:"stores"`
}

// UserProfileResponse wraps a UserProfile with timing.
type UserProfileResponse struct {
	ResponseTime float64 `json:"response_time_seconds"`
	*UserProfile
}
