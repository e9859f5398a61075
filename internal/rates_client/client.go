package rates_client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/langowen/currency-rates/internal/entities"
)

const ratesPath = "/api/currency-rates"

// ErrBadStatus is returned for any non-OK answer; 500 and 502 are not told apart.
var ErrBadStatus = errors.New("failed to fetch currency rates")

type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPClient) CurrencyRates(ctx context.Context) (*entities.RatesPayload, error) {
	const op = "rates_client.CurrencyRates"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ratesPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrBadStatus, "%s: %s", op, resp.Status)
	}

	var payload entities.RatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &payload, nil
}
