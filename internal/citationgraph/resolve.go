package citationgraph

import (
	"context"

	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/shared"
)

// ResourceURLLookup resolves a normalized origin URL to the resource that
// owns it, so a citation's target_url can be linked by match.
type ResourceURLLookup interface {
	FindByNormalizedURL(ctx context.Context, normalizedURL string) (shared.ID, bool, error)
}

// ResolveUnresolved scans citations with no target_resource_id, normalizes
// their target_url, and links them to an existing resource on exact
// normalized-URL match (spec §4.10). Re-running it is a no-op for already
// resolved rows, satisfying the idempotency requirement.
func ResolveUnresolved(ctx context.Context, repo citation.Repository, lookup ResourceURLLookup) (resolved int, err error) {
	pending, err := repo.Unresolved(ctx)
	if err != nil {
		return 0, err
	}

	for _, c := range pending {
		normalized, err := NormalizeURL(c.TargetURL())
		if err != nil {
			continue // malformed URL: leave unresolved rather than fail the whole batch
		}
		targetID, found, err := lookup.FindByNormalizedURL(ctx, normalized)
		if err != nil {
			return resolved, err
		}
		if !found {
			continue
		}
		c.Resolve(targetID)
		if err := repo.Save(ctx, c); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
