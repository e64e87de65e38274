package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"car-catalog-api/internal/suggest"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "car-catalog-api/1.0"
	resultLimit      = 10
)

// NominatimClient resolves place names through the OpenStreetMap Nominatim search API
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type place struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Address     struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		StateDistrict string `json:"state_district"`
		State         string `json:"state"`
	} `json:"address"`
}

// NewNominatimClient creates a client. Nominatim rejects requests without a User-Agent.
func NewNominatimClient(baseURL, userAgent string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search implements suggest.Geocoder
func (c *NominatimClient) Search(ctx context.Context, query, countryCode string) ([]suggest.Suggestion, error) {
	params := url.Values{}
	params.Set("q", query)
	if countryCode != "" {
		params.Set("countrycodes", countryCode)
	}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", fmt.Sprint(resultLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	out := make([]suggest.Suggestion, 0, len(places))
	for _, p := range places {
		name := placeName(p)
		if name == "" {
			continue
		}
		out = append(out, suggest.Suggestion{Name: name, Region: p.Address.State})
	}
	return out, nil
}

// placeName takes the first segment of the display name, falling back to the address
func placeName(p place) string {
	if first, _, _ := strings.Cut(p.DisplayName, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	for _, s := range []string{p.Name, p.Address.City, p.Address.Town, p.Address.Village, p.Address.StateDistrict} {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
