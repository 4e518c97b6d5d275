// Package commits implements the Commit Set Resolver: computing
// ancestors(heads) \ ancestors(haves) and reordering it so bases
// precede dependents, grounded on to_commit_stream.
package commits

import (
	"context"
	"fmt"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
)

// Resolve returns ancestors(heads) \ ancestors(haves) with bases before
// dependents. The commit graph streams newest-first; reversing restores
// the topological order the delta-ordering invariant (P4 at the commit
// level, and P7) requires.
func Resolve(ctx context.Context, graph repo.CommitGraph, heads, haves []objid.ChangesetId) ([]objid.ChangesetId, error) {
	newestFirst, err := graph.AncestorsDifference(ctx, heads, haves)
	if err != nil {
		return nil, fmt.Errorf("commits: computing ancestors difference: %w", err)
	}
	reversed := make([]objid.ChangesetId, len(newestFirst))
	for i, cs := range newestFirst {
		reversed[len(newestFirst)-1-i] = cs
	}
	return reversed, nil
}
