package schema

import (
	"context"
	"time"

	"github.com/infrahub-io/computed-attributes/pkg/logger"
)

// convergeTimeout and convergePollInterval bound the wait:
// 30s at 200ms intervals.
const (
	convergeTimeout      = 30 * time.Second
	convergePollInterval = 200 * time.Millisecond
)

// HashReporter reports the schema hash each active worker currently holds.
// A set with more than one distinct hash means the cluster hasn't converged
// yet; a nil/empty slice (no active workers) counts as converged.
type HashReporter interface {
	WorkerSchemaHashes(ctx context.Context) ([]string, error)
}

// AwaitConvergence waits, bounded by convergeTimeout at convergePollInterval,
// for every active worker to report the same schema hash. On
// timeout it logs a warning and returns nil — the registrar proceeds with
// its local schema rather than blocking setup indefinitely.
func AwaitConvergence(ctx context.Context, reporter HashReporter) error {
	log := logger.FromContext(ctx)
	deadline := convergeTimeout
	ticker := time.NewTicker(convergePollInterval)
	defer ticker.Stop()

	elapsed := time.Duration(0)
	for {
		hashes, err := reporter.WorkerSchemaHashes(ctx)
		if err != nil {
			return err
		}
		if converged(hashes) {
			return nil
		}
		if elapsed >= deadline {
			log.Warn("schema convergence wait timed out; proceeding with local schema",
				"waited", elapsed, "distinct_hashes", len(distinct(hashes)))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			elapsed += convergePollInterval
		}
	}
}

func converged(hashes []string) bool {
	return len(distinct(hashes)) <= 1
}

func distinct(hashes []string) map[string]bool {
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = true
	}
	return set
}
