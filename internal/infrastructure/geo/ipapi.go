package geo

import (
	"account-service/internal/logger"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const UnknownLocation = "Unknown Location"

// Locator resolves an IP address to a "City, Country" string. Lookups never
// fail the caller; UnknownLocation stands in for any error.
type Locator interface {
	Locate(ctx context.Context, ip string) string
}

type Disabled struct{}

func (Disabled) Locate(context.Context, string) string { return UnknownLocation }

// IPAPI queries an ipapi.co compatible endpoint: GET {base}/{ip}/json/.
type IPAPI struct {
	client  *http.Client
	baseURL string
}

func NewIPAPI(baseURL string, timeout time.Duration) *IPAPI {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPAPI{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type ipapiResponse struct {
	City        string `json:"city"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

func (c *IPAPI) Locate(ctx context.Context, ip string) string {
	if ip == "" {
		return UnknownLocation
	}

	location, err := c.lookup(ctx, ip)
	if err != nil {
		logger.Debug("Geolocation lookup failed",
			zap.String("event", "geo_lookup_failed"),
			zap.String("ip", ip),
			zap.Error(err),
		)
		return UnknownLocation
	}
	return location
}

func (c *IPAPI) lookup(ctx context.Context, ip string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Error {
		return "", fmt.Errorf("lookup rejected: %s", body.Reason)
	}

	return fmt.Sprintf("%s, %s", body.City, body.CountryName), nil
}
