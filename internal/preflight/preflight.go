package preflight

import (
	"context"

	"gamelib/internal/config"
)

// Result reports the outcome of a single preflight check. Skipped marks a
// check whose feature is not configured.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail"`
}

// Paths checks the data and log directories.
func Paths(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// RunAll executes the path checks followed by the storefront checks.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := Paths(cfg)
	results = append(results, CheckSteam(ctx, cfg))
	results = append(results, CheckGOG(ctx, cfg))
	return results
}

// Failed returns the results that neither passed nor were skipped.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			failed = append(failed, r)
		}
	}
	return failed
}
