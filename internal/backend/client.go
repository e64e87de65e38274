package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"car-catalog-api/internal/catalog"
	"car-catalog-api/internal/models"
)

// ErrNotFound is returned when the backend answers 404
var ErrNotFound = errors.New("backend resource not found")

// APIError is a failed backend call. Message is the backend's own text when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the booking backend's REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new backend client. token is sent as a bearer token when set.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchCars retrieves the full car list
func (c *Client) FetchCars(ctx context.Context) ([]catalog.Item, error) {
	var cars []catalog.Item
	if err := c.do(ctx, http.MethodGet, "/api/cars", nil, &cars); err != nil {
		return nil, fmt.Errorf("failed to fetch cars: %w", err)
	}
	if cars == nil {
		cars = []catalog.Item{}
	}
	return cars, nil
}

// ConfirmTokenPurchase asks the backend to settle a token payment
func (c *Client) ConfirmTokenPurchase(ctx context.Context, carID, reservationID, paymentID string) error {
	payload := map[string]string{
		"reservationId": reservationID,
		"paymentId":     paymentID,
	}
	path := fmt.Sprintf("/api/cars/%s/tokens/confirm", url.PathEscape(carID))
	if err := c.do(ctx, http.MethodPost, path, payload, nil); err != nil {
		return fmt.Errorf("failed to confirm token purchase for car %s: %w", carID, err)
	}
	return nil
}

// GetBooking retrieves one booking. Its car may come back as an id or populated.
func (c *Client) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	path := fmt.Sprintf("/api/bookings/%s", url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &booking); err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return &booking, nil
}

// do sends a request and unwraps the {status, body, message} envelope into out
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env models.Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, env.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Body) == 0 || string(env.Body) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
