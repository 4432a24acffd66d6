package categorize

import (
	"context"
	"sync"
	"time"

	"github.com/spesti-app/receipts-core/internal/entity"
)

// BatchConfig controls backfill batching. Batch size is purely a rate-limit
// knob: items share no mutable state, so size is throughput vs. external API
// quota, not correctness.
type BatchConfig struct {
	Size  int           // default 10
	Delay time.Duration // pause between batches, default 500ms
}

// CategorizeAll assigns categories to every name, preserving input order.
// Each batch runs concurrently; batches run sequentially with a short delay
// to respect external API rate limits.
func (e *Engine) CategorizeAll(ctx context.Context, names []string, cfg BatchConfig) []Assignment {
	if cfg.Size <= 0 {
		cfg.Size = 10
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}

	out := make([]Assignment, len(names))
	for start := 0; start < len(names); start += cfg.Size {
		end := start + cfg.Size
		if end > len(names) {
			end = len(names)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = Assignment{
					Name:     names[i],
					Category: e.Categorize(ctx, names[i]),
				}
			}(i)
		}
		wg.Wait()

		if end < len(names) {
			select {
			case <-ctx.Done():
				e.logger.Warn("categorize.backfill_cancelled",
					"processed", end, "total", len(names))
				return out
			case <-time.After(cfg.Delay):
			}
		}
	}
	return out
}

// Assignment pairs an input name with its categorization verdict.
type Assignment struct {
	Name     string
	Category entity.CategoryAssignment
}
