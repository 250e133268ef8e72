package integration

import "github.com/qm/backend/internal/domain/integration"

// SyncRequest selects the legacy models to pull. Empty Models means all of
// them; Full ignores the last imported write date.
type SyncRequest struct {
	Models []string `json:"models" binding:"omitempty,dive,oneof=tax.classification product.category res.partner"`
	Full   bool     `json:"full"`
}

// SyncResponse lists one result per model in the order they ran
type SyncResponse struct {
	Results []integration.SyncResult `json:"results"`
}

func (r SyncRequest) models() []integration.LegacyModel {
	if len(r.Models) == 0 {
		return integration.SyncOrder
	}
	want := make(map[integration.LegacyModel]bool, len(r.Models))
	for _, m := range r.Models {
		want[integration.LegacyModel(m)] = true
	}
	out := make([]integration.LegacyModel, 0, len(want))
	for _, m := range integration.SyncOrder {
		if want[m] {
			out = append(out, m)
		}
	}
	return out
}

// Totals sums the counts over every model. Skipped records count as success.
func (r *SyncResponse) Totals() (total, success, failed int) {
	for _, res := range r.Results {
		total += res.TotalCount
		failed += res.FailedCount
	}
	return total, total - failed, failed
}
