// Package upstream fetches chart request payloads published by external
// air-quality services.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/02loveslollipop/Shizuku-airquality-viewer/services/api/timeseries"
)

// maxPayloadBytes bounds the response body read from upstream.
const maxPayloadBytes = 32 << 20

// FetchInput retrieves a chart payload from url.
func FetchInput(ctx context.Context, client *http.Client, url string) (timeseries.Input, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return timeseries.Input{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return timeseries.Input{}, fmt.Errorf("request payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return timeseries.Input{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload timeseries.Input
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBytes)).Decode(&payload); err != nil {
		return timeseries.Input{}, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}
