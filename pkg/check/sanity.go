package check

import "fmt"

// SanityResult holds the outcome of a physical constraint check on capacity data.
type SanityResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// SanityCheck validates capacity metrics against physical constraints.
// It is advisory: the evaluator never changes a status because of it.
func SanityCheck(metrics *CapacityMetrics) []SanityResult {
	if metrics == nil {
		return nil
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"total_capacity_gb", metrics.TotalCapacityGB},
		{"used_capacity_gb", metrics.UsedCapacityGB},
		{"subscribed_capacity_gb", metrics.SubscribedCapacityGB},
	}

	var results []SanityResult
	for _, f := range fields {
		if f.value < 0 {
			results = append(results, SanityResult{
				Check:   f.name + " non-negative",
				Passed:  false,
				Details: fmt.Sprintf("negative value: %.2f", f.value),
			})
			continue
		}
		results = append(results, SanityResult{
			Check:   f.name + " non-negative",
			Passed:  true,
			Details: fmt.Sprintf("%.2f GB", f.value),
		})
	}

	// Subscribed capacity may legitimately exceed total (thin provisioning); used may not.
	if metrics.UsedCapacityGB > metrics.TotalCapacityGB {
		results = append(results, SanityResult{
			Check:   "used within total",
			Passed:  false,
			Details: fmt.Sprintf("used %.2f GB exceeds total %.2f GB", metrics.UsedCapacityGB, metrics.TotalCapacityGB),
		})
	} else {
		results = append(results, SanityResult{
			Check:   "used within total",
			Passed:  true,
			Details: fmt.Sprintf("%.2f of %.2f GB", metrics.UsedCapacityGB, metrics.TotalCapacityGB),
		})
	}

	return results
}

// Failed returns only the failed sanity results.
func Failed(results []SanityResult) []SanityResult {
	var failed []SanityResult
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
