package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// KPIValue is one computed KPI in an analytics response.
type KPIValue struct {
	ID     string  `json:"id"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
	Trend  string  `json:"trend"`
}

// AnalyticsResult is a decoded analytics response: the kpis array plus the
// remaining payload keyed by chart id.
type AnalyticsResult struct {
	KPIs   []KPIValue
	Series map[string]any
}

// Analytics posts an analytics request body and decodes the shaped response.
func (c *Client) Analytics(ctx context.Context, path string, body any) (AnalyticsResult, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, body, &raw); err != nil {
		return AnalyticsResult{}, err
	}

	result := AnalyticsResult{Series: make(map[string]any)}
	for key, msg := range raw {
		if key == "kpis" {
			if err := json.Unmarshal(msg, &result.KPIs); err != nil {
				return AnalyticsResult{}, err
			}
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return AnalyticsResult{}, err
		}
		result.Series[key] = v
	}
	return result, nil
}
