package fxsource

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingRoundTripper logs every outbound upstream request.
type LoggingRoundTripper struct {
	Wrapped http.RoundTripper
}

func (lrt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := lrt.Wrapped.RoundTrip(req)
	if err != nil {
		slog.Error("upstream request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	slog.Debug("upstream request",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return resp, nil
}
