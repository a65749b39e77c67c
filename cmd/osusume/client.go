package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 90 * time.Second}

func productsPath(userID int64, limit *int) string {
	return recommendationPath("products", userID, limit)
}

func storesPath(userID int64, limit *int) string {
	return recommendationPath("stores", userID, limit)
}

// recommendationPath builds a recommendation request. A nil limit leaves the choice to the
// server's configured default.
func recommendationPath(kind string, userID int64, limit *int) string {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	if limit != nil {
		q.Set("limit", strconv.Itoa(*limit))
	}
	return "/api/v1/recommendations/" + kind + "?" + q.Encode()
}

func profilePath(userID int64) string {
	return "/api/v1/users/" + strconv.FormatInt(userID, 10) + "/profile"
}

// getJSON performs GET serverURL+path and decodes a 200 response into out. Non-200
// responses are returned as errors carrying the server's error message.
func getJSON(serverURL, path string, out interface{}) error {
	resp, err := httpClient.Get(strings.TrimRight(serverURL, "/") + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
