// Package delta implements the Delta Chooser and the Per-Changeset
// Object Emitter: deciding, per manifest entry, whether to emit a
// pre-computed delta or fall back to a base item, grounded on
// delta_below_threshold / delta_base / packfile_entry /
// blob_and_tree_packfile_items.
package delta

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/zetaforge/gitwire/pkg/gitwire/concurrency"
	"github.com/zetaforge/gitwire/pkg/gitwire/objects"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

// Default concurrency windows per §5, used when a caller passes a
// non-positive window.
const (
	DefaultPerCommitWindow = 500
	DefaultPerEntryWindow  = 1000
)

// Choose implements choose_delta(entry, delta_inclusion): returns the
// smallest-instructions delta that passes the size-ratio threshold, or
// ok=false if inclusion is disabled or no delta qualifies.
func Choose(entry types.GitDeltaManifestEntry, inclusion types.DeltaInclusion) (types.GitDeltaManifestDelta, bool) {
	if !inclusion.Enabled() || len(entry.Deltas) == 0 {
		return types.GitDeltaManifestDelta{}, false
	}
	candidates := make([]types.GitDeltaManifestDelta, len(entry.Deltas))
	copy(candidates, entry.Deltas)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].InstructionsCompressedSize < candidates[j].InstructionsCompressedSize
	})
	smallest := candidates[0]
	threshold := float64(entry.Full.Size) * float64(inclusion.Threshold())
	if float64(smallest.InstructionsCompressedSize) < threshold {
		return smallest, true
	}
	return types.GitDeltaManifestDelta{}, false
}

// PackfileEntryFor implements packfile_entry_for: builds the
// PackfileItem for one manifest entry, choosing a delta when eligible
// and falling back to the Base Item Provider otherwise.
func PackfileEntryFor(ctx context.Context, bs repo.BlobStore, cs objid.ChangesetId, entry types.GitDeltaManifestEntry, deltaInclusion types.DeltaInclusion, packfilePolicy types.PackfileItemInclusion) (types.PackfileItem, error) {
	if d, ok := Choose(entry, deltaInclusion); ok {
		chunks, err := bs.FetchDeltaInstructions(ctx, cs, entry.Path, d.Origin, d.InstructionsChunkCount)
		if err != nil {
			return types.PackfileItem{}, fmt.Errorf("delta: fetching instruction chunks for %s %s: %w", cs, entry.Path, err)
		}
		var buf bytes.Buffer
		buf.Grow(int(d.InstructionsCompressedSize))
		for _, c := range chunks {
			buf.Write(c)
		}
		return types.NewDelta(entry.Full.Oid, d.BaseOid, d.InstructionsUncompressedSize, buf.Bytes()), nil
	}
	id := objid.AllObjects(entry.Full.AsRich(entry.Kind))
	item, err := objects.BaseItem(ctx, bs, id, packfilePolicy)
	if err != nil {
		return types.PackfileItem{}, err
	}
	return item, nil
}

// BlobAndTreeItemsFor implements blob_and_tree_items_for: derives the
// changeset's root delta manifest, then emits one PackfileItem per
// sub-entry in manifest order, with up to entryWindow entries'
// computations in flight at once (entryWindow <= 0 falls back to
// DefaultPerEntryWindow). Output order equals manifest order.
func BlobAndTreeItemsFor(ctx context.Context, caps repo.Capabilities, cs objid.ChangesetId, deltaInclusion types.DeltaInclusion, packfilePolicy types.PackfileItemInclusion, entryWindow int) ([]types.PackfileItem, error) {
	if entryWindow <= 0 {
		entryWindow = DefaultPerEntryWindow
	}
	entries, err := caps.DerivedData().DeriveGitDeltaManifest(ctx, cs)
	if err != nil {
		return nil, fmt.Errorf("delta: deriving git delta manifest for %s: %w", cs, err)
	}
	bs := caps.BlobStore()
	return concurrency.OrderedMap(ctx, entries, entryWindow, func(ctx context.Context, entry types.GitDeltaManifestEntry) (types.PackfileItem, error) {
		return PackfileEntryFor(ctx, bs, cs, entry, deltaInclusion, packfilePolicy)
	})
}

// DistinctObjectOids collects the set of distinct full.oid values across
// a changeset's manifest entries, used by the object-count derivation in
// the Stream Composer.
func DistinctObjectOids(ctx context.Context, caps repo.Capabilities, cs objid.ChangesetId) (map[objid.GitObjectId]struct{}, error) {
	entries, err := caps.DerivedData().DeriveGitDeltaManifest(ctx, cs)
	if err != nil {
		return nil, fmt.Errorf("delta: deriving git delta manifest for %s: %w", cs, err)
	}
	set := make(map[objid.GitObjectId]struct{}, len(entries))
	for _, e := range entries {
		set[e.Full.Oid] = struct{}{}
	}
	return set, nil
}
