package fxsource

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/langowen/currency-rates/internal/entities"
)

const maxBodySize = 1 << 20

var ErrBodyTooLarge = errors.New("upstream body too large")

// Direction is the quote convention of an upstream rate map.
type Direction string

const (
	// PerLocal quotes foreign units per one local unit (base=TRY).
	PerLocal Direction = "per_local"
	// PerForeign quotes local units per one foreign unit.
	PerForeign Direction = "per_foreign"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", PerLocal:
		return PerLocal, nil
	case PerForeign:
		return PerForeign, nil
	default:
		return "", fmt.Errorf("unknown quote direction %q", s)
	}
}

type Source struct {
	Name       string
	URL        string
	Direction  Direction
	DateFields []string
}

var DefaultDateFields = []string{"date", "time_last_update_utc"}

type HTTPClient struct {
	client *http.Client
	source Source
	codes  []entities.CurrencyCode
}

func NewHTTPClient(client *http.Client, source Source, codes []entities.CurrencyCode) *HTTPClient {
	if client == nil {
		client = &http.Client{Transport: LoggingRoundTripper{Wrapped: http.DefaultTransport}}
	}
	if source.Direction == "" {
		source.Direction = PerLocal
	}
	if len(source.DateFields) == 0 {
		source.DateFields = DefaultDateFields
	}

	return &HTTPClient{client: client, source: source, codes: codes}
}

func (c *HTTPClient) Name() string {
	return c.source.Name
}

// FetchRates queries the source once. A non-OK status is reported as
// entities.ErrUpstreamStatus. A well-formed body without a rate object yields
// an empty rate map rather than an error.
func (c *HTTPClient) FetchRates(ctx context.Context) (*entities.UpstreamRates, error) {
	op := "fxsource.FetchRates." + c.source.Name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, op+": create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, op+": get")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(entities.ErrUpstreamStatus, "%s: %s", op, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, errors.Wrap(err, op+": read body")
	}
	if len(body) > maxBodySize {
		return nil, errors.Wrapf(ErrBodyTooLarge, "%s: over %d bytes", op, maxBodySize)
	}

	return c.decode(body, op)
}

func (c *HTTPClient) decode(body []byte, op string) (*entities.UpstreamRates, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New(op + ": malformed json body")
	}

	doc := gjson.ParseBytes(body)

	result := &entities.UpstreamRates{
		Source: c.source.Name,
		Base:   firstString(doc, "base", "base_code"),
		Date:   firstString(doc, c.source.DateFields...),
		Rates:  make(map[entities.CurrencyCode]float64, len(c.codes)),
	}

	rates := doc.Get("rates")
	if !rates.IsObject() {
		return result, nil
	}

	for _, code := range c.codes {
		v := rates.Get(string(code))
		if v.Type != gjson.Number {
			continue
		}

		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if c.source.Direction == PerForeign && f != 0 {
			f = 1 / f
		}

		result.Rates[code] = f
	}

	return result, nil
}

func firstString(doc gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := doc.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
