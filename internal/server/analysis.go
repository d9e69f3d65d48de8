package server

import (
	"fmt"
	"hash/fnv"
	"net/http"
)

// analysisItem is one requested KPI or chart.
type analysisItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Type    string   `json:"type,omitempty"`
	Metric  string   `json:"metric,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
}

// analysisRequest is the dashboard data request body.
type analysisRequest struct {
	Model       string         `json:"model"`
	ModelConfig map[string]any `json:"modelConfig,omitempty"`
	Timeframe   string         `json:"timeframe"`
	Charts      []analysisItem `json:"charts"`
	KPIs        []analysisItem `json:"kpis"`
	DB          string         `json:"db,omitempty"`
	Keyspace    string         `json:"keyspace,omitempty"`
}

// handleAnalysis returns synthetic dashboard data. Values are derived from
// the item id and timeframe so repeated requests are stable, which is what
// the client-side cache tests rely on.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	resp := make(map[string]any)

	kpis := make([]map[string]any, 0, len(req.KPIs))
	for _, item := range req.KPIs {
		seed := metricSeed(item.ID, req.Timeframe)
		trend := "up"
		if seed%2 == 1 {
			trend = "down"
		}
		kpis = append(kpis, map[string]any{
			"id":     item.ID,
			"value":  seed % 1000,
			"change": float64(seed%200)/10 - 10,
			"trend":  trend,
		})
	}
	resp["kpis"] = kpis

	for _, item := range req.Charts {
		labels := make([]string, 7)
		series := make([][]uint64, len(item.Metrics))
		for i := range series {
			series[i] = make([]uint64, 7)
		}
		for day := 0; day < 7; day++ {
			labels[day] = fmt.Sprintf("day %d", day+1)
			for i, metric := range item.Metrics {
				series[i][day] = metricSeed(fmt.Sprintf("%s.%s.%d", item.ID, metric, day), req.Timeframe) % 100
			}
		}
		resp[item.ID] = map[string]any{"labels": labels, "series": series}
	}

	writeJSON(w, http.StatusOK, resp)
}

func metricSeed(id, timeframe string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	h.Write([]byte(timeframe))
	return h.Sum64()
}
