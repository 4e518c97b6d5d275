// Package pack implements the Stream Composer: the three top-level
// handlers (ls-refs, pack-item-stream, fetch) that drive the Ref
// Resolver, Commit Set Resolver, and the tag/commit/tree-blob
// sub-streams into a single declared object count and item list,
// grounded on generate_pack_item_stream / ls_refs_response /
// fetch_response.
package pack

import (
	"context"
	"fmt"

	"github.com/zetaforge/gitwire/pkg/gitwire/commits"
	"github.com/zetaforge/gitwire/pkg/gitwire/delta"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/refs"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/translate"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"

	"github.com/zetaforge/gitwire/pkg/gitwire/concurrency"
	"github.com/zetaforge/gitwire/pkg/gitwire/objects"
)

const (
	tagWindow    = 500
	commitWindow = 1000
)

// LsRefsResponse implements ls_refs_response: steps 1 and 4 of the
// ref-resolution pipeline only.
func LsRefsResponse(ctx context.Context, caps repo.Capabilities, req types.LsRefsRequest) (types.RefMap, error) {
	refMap, err := refs.Resolve(ctx, caps, req.RequestedRefs, req.RequestedSymrefs, req.TagInclusion)
	if err != nil {
		return nil, fmt.Errorf("pack: ls-refs: %w", err)
	}
	return refMap, nil
}

// GeneratePackItemStream implements the clone-path handler.
func GeneratePackItemStream(ctx context.Context, caps repo.Capabilities, req types.GeneratePackItemStreamRequest) (types.PackItemStreamResult, error) {
	refMap, err := refs.Resolve(ctx, caps, req.RequestedRefs, req.RequestedSymrefs, req.TagInclusion)
	if err != nil {
		return types.PackItemStreamResult{}, fmt.Errorf("pack: resolving refs: %w", err)
	}

	// commits.Resolve needs bonsai heads, not the Git oids refs.Resolve
	// ultimately projects bookmarks to; re-derive the same filtered
	// changeset set independent of tag-inclusion dispatch.
	heads, err := collectHeadChangesets(ctx, caps, req.RequestedRefs)
	if err != nil {
		return types.PackItemStreamResult{}, err
	}

	commitList, err := commits.Resolve(ctx, caps.CommitGraph(), heads, req.HaveHeads)
	if err != nil {
		return types.PackItemStreamResult{}, fmt.Errorf("pack: resolving commit set: %w", err)
	}

	return composeFromCommits(ctx, caps, commitList, refMap, req.DeltaInclusion, req.PackfileItemInclusion, false, req.Windows)
}

// FetchResponse implements the incremental-fetch handler: inputs arrive
// as Git object ids and are translated to bonsai before the same
// commit-set/sub-stream pipeline runs. No ref map is returned and the
// packfile policy is fixed to FetchAndStore. The delta policy is the
// deltaInclusion argument, applied as given; FetchResponse does not
// substitute a default threshold of its own.
//
// All annotated tags in the repository are included in the tag stream
// regardless of reachability: Git tolerates extra pack objects, and full
// enumeration is cheap compared to filtering against the requested set —
// the original implementation this is grounded on makes the same
// trade-off unconditionally.
func FetchResponse(ctx context.Context, caps repo.Capabilities, req types.FetchRequest, deltaInclusion types.DeltaInclusion) (types.PackItemStreamResult, error) {
	heads, err := translate.GitShasToBonsais(ctx, caps, req.Heads)
	if err != nil {
		return types.PackItemStreamResult{}, fmt.Errorf("pack: translating fetch heads: %w", err)
	}
	haves, err := translate.GitShasToBonsais(ctx, caps, req.Bases)
	if err != nil {
		return types.PackItemStreamResult{}, fmt.Errorf("pack: translating fetch bases: %w", err)
	}

	commitList, err := commits.Resolve(ctx, caps.CommitGraph(), heads, haves)
	if err != nil {
		return types.PackItemStreamResult{}, fmt.Errorf("pack: resolving commit set: %w", err)
	}

	return composeFromCommits(ctx, caps, commitList, nil, deltaInclusion, types.FetchAndStore, true, req.Windows)
}

// composeFromCommits builds the tag/commit/tree-blob sub-streams and
// concatenates them; refMap is nil for fetch, and allTags forces
// unconditional tag enumeration (the fetch path) rather than filtering
// to refMap's annotated-tag-backed bookmarks (the clone path). windows
// controls the bounded-concurrency fan-out width of the tree/blob
// sub-stream (per commit and per manifest entry); a zero field falls
// back to the delta package defaults. The tag and commit sub-streams
// always use the fixed tagWindow and commitWindow.
func composeFromCommits(ctx context.Context, caps repo.Capabilities, commitList []objid.ChangesetId, refMap types.RefMap, deltaInclusion types.DeltaInclusion, packfilePolicy types.PackfileItemInclusion, allTags bool, windows types.Windows) (types.PackItemStreamResult, error) {
	tagItems, err := tagStream(ctx, caps, refMap, allTags, packfilePolicy)
	if err != nil {
		return types.PackItemStreamResult{}, err
	}

	commitItems, err := commitStream(ctx, caps, commitList, packfilePolicy)
	if err != nil {
		return types.PackItemStreamResult{}, err
	}

	treeBlobItems, err := treeBlobStream(ctx, caps, commitList, deltaInclusion, packfilePolicy, windows)
	if err != nil {
		return types.PackItemStreamResult{}, err
	}

	distinctCount, err := distinctTreeBlobCount(ctx, caps, commitList)
	if err != nil {
		return types.PackItemStreamResult{}, err
	}

	items := make([]types.PackfileItem, 0, len(tagItems)+len(commitItems)+len(treeBlobItems))
	items = append(items, tagItems...)
	items = append(items, commitItems...)
	items = append(items, treeBlobItems...)

	objectCount := len(commitList) + distinctCount + len(tagItems)

	return types.PackItemStreamResult{
		Items:       items,
		ObjectCount: objectCount,
		RefMap:      refMap,
	}, nil
}

// tagStream emits a base item per annotated tag. For the clone path
// (allTags=false) this is every bookmark in refMap backed by an
// annotated tag; for fetch (allTags=true) it is every bonsai-tag-mapping
// entry in the repository, unconditionally.
func tagStream(ctx context.Context, caps repo.Capabilities, refMap types.RefMap, allTags bool, packfilePolicy types.PackfileItemInclusion) ([]types.PackfileItem, error) {
	var tagOids []objid.GitObjectId
	if allTags {
		entries, err := caps.BonsaiTagMapping().GetAllEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("pack: listing bonsai-tag mapping: %w", err)
		}
		tagOids = make([]objid.GitObjectId, 0, len(entries))
		for _, t := range entries {
			tagOids = append(tagOids, t.TagHash)
		}
	} else {
		entries, err := caps.BonsaiTagMapping().GetAllEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("pack: listing bonsai-tag mapping: %w", err)
		}
		tagSet := make(map[objid.GitObjectId]struct{})
		tagByName := make(map[string]objid.GitObjectId, len(entries))
		for _, t := range entries {
			tagByName[t.TagName] = t.TagHash
		}
		for refName, target := range refMap {
			name := stripRefPrefix(refName)
			tagOid, ok := tagByName[name]
			if !ok {
				continue
			}
			if target.Oid == tagOid || target.HasMetadata() {
				tagSet[tagOid] = struct{}{}
			}
		}
		for oid := range tagSet {
			tagOids = append(tagOids, oid)
		}
	}

	bs := caps.BlobStore()
	return concurrency.OrderedMap(ctx, tagOids, tagWindow, func(ctx context.Context, oid objid.GitObjectId) (types.PackfileItem, error) {
		return objects.BaseItem(ctx, bs, objidNonBlob(oid), packfilePolicy)
	})
}

func commitStream(ctx context.Context, caps repo.Capabilities, commitList []objid.ChangesetId, packfilePolicy types.PackfileItemInclusion) ([]types.PackfileItem, error) {
	gitMapping := caps.BonsaiGitMapping()
	bs := caps.BlobStore()
	oids, err := gitMapping.GetGitShas(ctx, commitList)
	if err != nil {
		return nil, fmt.Errorf("pack: resolving commit git shas: %w", err)
	}
	return concurrency.OrderedMap(ctx, commitList, commitWindow, func(ctx context.Context, cs objid.ChangesetId) (types.PackfileItem, error) {
		oid, ok := oids[cs]
		if !ok {
			return types.PackfileItem{}, &repo.MappingMissingError{Kind: "bonsai-git", ChangesetId: cs.String()}
		}
		return objects.BaseItem(ctx, bs, objidNonBlob(oid), packfilePolicy)
	})
}

func treeBlobStream(ctx context.Context, caps repo.Capabilities, commitList []objid.ChangesetId, deltaInclusion types.DeltaInclusion, packfilePolicy types.PackfileItemInclusion, windows types.Windows) ([]types.PackfileItem, error) {
	perCommitWindow := windows.CommitWindow
	if perCommitWindow <= 0 {
		perCommitWindow = delta.DefaultPerCommitWindow
	}
	return concurrency.OrderedFlatMap(ctx, commitList, perCommitWindow, func(ctx context.Context, cs objid.ChangesetId) ([]types.PackfileItem, error) {
		return delta.BlobAndTreeItemsFor(ctx, caps, cs, deltaInclusion, packfilePolicy, windows.EntryWindow)
	})
}

func distinctTreeBlobCount(ctx context.Context, caps repo.Capabilities, commitList []objid.ChangesetId) (int, error) {
	sets, err := concurrency.OrderedMap(ctx, commitList, commitWindow, func(ctx context.Context, cs objid.ChangesetId) (map[objid.GitObjectId]struct{}, error) {
		return delta.DistinctObjectOids(ctx, caps, cs)
	})
	if err != nil {
		return 0, err
	}
	union := make(map[objid.GitObjectId]struct{})
	for _, s := range sets {
		for oid := range s {
			union[oid] = struct{}{}
		}
	}
	return len(union), nil
}

// collectHeadChangesets re-derives the set of changeset ids selected by
// requestedRefs, independent of tag-inclusion dispatch, since the
// commit-set resolver needs bonsai heads, not the Git oids refs.Resolve
// ultimately projects to.
func collectHeadChangesets(ctx context.Context, caps repo.Capabilities, requestedRefs types.RequestedRefs) ([]objid.ChangesetId, error) {
	entries, err := caps.Bookmarks().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("pack: listing bookmarks: %w", err)
	}
	var heads []objid.ChangesetId
	seen := make(map[string]bool)
	for _, e := range entries {
		refQualified := "refs/" + e.Key.Name
		if !requestedRefs.Keep(e.Key.Name, refQualified) {
			continue
		}
		if cs, ok := requestedRefs.OverrideTarget(e.Key.Name); ok {
			heads = append(heads, cs)
		} else {
			heads = append(heads, e.Cs)
		}
		seen[e.Key.Name] = true
	}
	if m, ok := requestedRefs.IsIncludedWithValue(); ok {
		for name, cs := range m {
			if seen[name] {
				continue
			}
			heads = append(heads, cs)
		}
	}
	return heads, nil
}

func stripRefPrefix(refName string) string {
	for _, p := range []string{"refs/heads/", "refs/tags/"} {
		if len(refName) > len(p) && refName[:len(p)] == p {
			return refName[len(p):]
		}
	}
	return refName
}

func objidNonBlob(oid objid.GitObjectId) objid.ObjectIdentifier {
	return objid.NonBlobObjects(oid)
}
