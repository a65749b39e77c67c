// Package cli provides CLI output helpers for Osusume.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json"; an empty string means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// WriteProductRecommendations writes a product recommendation response to w.
func WriteProductRecommendations(w io.Writer, resp *models.ProductRecommendationResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%d products for user %d in %.3fs\n\n", len(resp.Products), resp.UserID, resp.ResponseTime)
	for i, p := range resp.Products {
		fmt.Fprintf(w, "%3d. #%d  score %.4f", i+1, p.ID, p.Score)
		if p.Product != nil {
			fmt.Fprintf(w, "  %s", Truncate(describeProduct(p.Product), 80))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteStoreRecommendations writes a store recommendation response to w.
func WriteStoreRecommendations(w io.Writer, resp *models.StoreRecommendationResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%d stores for user %d in %.3fs\n\n", len(resp.Stores), resp.UserID, resp.ResponseTime)
	for i, s := range resp.Stores {
		fmt.Fprintf(w, "%3d. #%d  ", i+1, s.ID)
		if s.Source == models.SourceBackfill {
			fmt.Fprint(w, "backfill")
		} else {
			fmt.Fprintf(w, "score %.4f", s.Score)
			if s.Linked {
				fmt.Fprint(w, " (linked)")
			}
		}
		if s.Store != nil {
			fmt.Fprintf(w, "  %s", Truncate(describeStore(s.Store), 80))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteUserProfile writes a user profile to w.
func WriteUserProfile(w io.Writer, resp *models.UserProfileResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if resp.UserProfile == nil {
		fmt.Fprintln(w, "no profile")
		return nil
	}
	fmt.Fprintf(w, "\nUser %d\n", resp.UserID)
	writeEntitySet(w, "Preferences", resp.Preferences)
	writeEntitySet(w, "History", resp.History)
	return nil
}

// WriteStatus writes a status map (as returned by /api/v1/status) to w.
func WriteStatus(w io.Writer, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	for _, key := range []string{"products", "stores", "users_with_preferences", "database_size_bytes"} {
		if v, ok := status[key]; ok {
			fmt.Fprintf(w, "%-24s %v\n", key+":", v)
		}
	}
	if cfg, ok := status["config"].(map[string]interface{}); ok {
		fmt.Fprintln(w, "config:")
		for _, key := range []string{"strategy", "store_mapping", "neighbors", "backfill", "database_path"} {
			if v, ok := cfg[key]; ok {
				fmt.Fprintf(w, "  %-22s %v\n", key+":", v)
			}
		}
	}
	return nil
}

func writeEntitySet(w io.Writer, title string, set models.EntitySet) {
	fmt.Fprintf(w, "\n%s: %d products, %d stores\n", title, len(set.Products), len(set.Stores))
	for _, p := range set.Products {
		fmt.Fprintf(w, "  product #%d  %s\n", p.ID, Truncate(describeProduct(p), 80))
	}
	for _, s := range set.Stores {
		fmt.Fprintf(w, "  store   #%d  %s\n", s.ID, Truncate(describeStore(s), 80))
	}
}

func describeProduct(p *models.Product) string {
	var parts []string
	for _, f := range []string{"name", "category", "region"} {
		if v, _ := p.Attribute(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

func describeStore(s *models.Store) string {
	var parts []string
	for _, f := range []string{"name", "district", "region"} {
		if v, _ := s.Attribute(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
