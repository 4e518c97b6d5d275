// Package refs implements the Ref Resolver: projecting bookmarks,
// annotated tags, and symbolic refs into a single ref-name to
// RefTarget map, per the filtering and tag/symref dispatch rules of
// refs_to_include / include_symrefs.
package refs

import (
	"context"
	"fmt"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

// Resolve implements resolve_refs(requested_refs, tag_inclusion) →
// map<ref_name, RefTarget>, plus the symref merge step, since every
// caller in §4.5 needs both together.
func Resolve(ctx context.Context, caps repo.Capabilities, requestedRefs types.RequestedRefs, requestedSymrefs types.RequestedSymrefs, tagInclusion types.TagInclusion) (types.RefMap, error) {
	entries, err := caps.Bookmarks().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("refs: listing bookmarks: %w", err)
	}

	type kept struct {
		key types.BookmarkKey
		cs  objid.ChangesetId
	}
	var keptEntries []kept
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		refQualified := "refs/" + e.Key.Name
		if !requestedRefs.Keep(e.Key.Name, refQualified) {
			continue
		}
		if cs, ok := requestedRefs.OverrideTarget(e.Key.Name); ok {
			keptEntries = append(keptEntries, kept{key: e.Key, cs: cs})
		} else {
			keptEntries = append(keptEntries, kept{key: e.Key, cs: e.Cs})
		}
		seen[e.Key.Name] = true
	}

	// IncludedWithValue: inject every (name, cs_id) not already present,
	// as a synthetic branch bookmark so clients can advertise refs the
	// server does not track.
	if m, ok := requestedRefs.IsIncludedWithValue(); ok {
		for name, cs := range m {
			if seen[name] {
				continue
			}
			if name == "" {
				return nil, &repo.MalformedRefNameError{Name: name}
			}
			keptEntries = append(keptEntries, kept{
				key: types.BookmarkKey{Category: types.CategoryBranch, Name: name},
				cs:  cs,
			})
		}
	}

	// Batch-resolve bonsai-git mapping for every changeset collected.
	csSet := make(map[objid.ChangesetId]struct{}, len(keptEntries))
	for _, k := range keptEntries {
		csSet[k.cs] = struct{}{}
	}
	csList := make([]objid.ChangesetId, 0, len(csSet))
	for cs := range csSet {
		csList = append(csList, cs)
	}
	bonsaiGit, err := caps.BonsaiGitMapping().GetGitShas(ctx, csList)
	if err != nil {
		return nil, fmt.Errorf("refs: resolving bonsai-git mapping: %w", err)
	}

	tagEntries, err := caps.BonsaiTagMapping().GetAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("refs: listing bonsai-tag mapping: %w", err)
	}
	tagMap := make(map[string]objid.GitObjectId, len(tagEntries))
	for _, t := range tagEntries {
		tagMap[t.TagName] = t.TagHash
	}

	refMap := make(types.RefMap, len(keptEntries))
	for _, k := range keptEntries {
		refName := "refs/" + k.key.RefString()
		tagOid, isAnnotatedTag := tagMap[k.key.Name]
		if !isAnnotatedTag {
			gitOid, ok := bonsaiGit[k.cs]
			if !ok {
				return nil, &repo.MappingMissingError{Kind: "bonsai-git", ChangesetId: k.cs.String()}
			}
			refMap[refName] = types.Plain(gitOid)
			continue
		}
		switch tagInclusion {
		case types.TagAsIs:
			refMap[refName] = types.Plain(tagOid)
		case types.TagPeeled:
			gitOid, ok := bonsaiGit[k.cs]
			if !ok {
				return nil, &repo.MappingMissingError{Kind: "bonsai-git", ChangesetId: k.cs.String()}
			}
			refMap[refName] = types.Plain(gitOid)
		case types.TagWithTarget:
			gitOid, ok := bonsaiGit[k.cs]
			if !ok {
				return nil, &repo.MappingMissingError{Kind: "bonsai-git", ChangesetId: k.cs.String()}
			}
			refMap[refName] = types.WithMetadata(tagOid, "peeled:"+gitOid.String())
		}
	}

	if err := mergeSymrefs(ctx, caps, refMap, requestedSymrefs); err != nil {
		return nil, err
	}

	return refMap, nil
}

func mergeSymrefs(ctx context.Context, caps repo.Capabilities, refMap types.RefMap, requestedSymrefs types.RequestedSymrefs) error {
	if requestedSymrefs.IsExcludeAll() {
		return nil
	}
	if requestedSymrefs.IsIncludeHead() {
		entry, err := caps.Symrefs().GetBySymrefName(ctx, "HEAD")
		if err != nil {
			return fmt.Errorf("refs: resolving HEAD symref: %w", err)
		}
		target, err := symrefTarget(refMap, entry, requestedSymrefs.Format())
		if err != nil {
			return err
		}
		refMap[entry.SymrefName] = target
		return nil
	}
	all, err := caps.Symrefs().ListAll(ctx)
	if err != nil {
		return fmt.Errorf("refs: listing symrefs: %w", err)
	}
	for _, entry := range all {
		target, err := symrefTarget(refMap, entry, requestedSymrefs.Format())
		if err != nil {
			return err
		}
		refMap[entry.SymrefName] = target
	}
	return nil
}

func symrefTarget(refMap types.RefMap, entry repo.SymrefEntry, format types.SymrefFormat) (types.RefTarget, error) {
	resolved, ok := refMap[entry.RefNameWithType]
	if !ok {
		return types.RefTarget{}, &repo.SymrefTargetMissingError{Symref: entry.SymrefName, TargetRef: entry.RefNameWithType}
	}
	if format == types.NameOnly {
		return types.Plain(resolved.Oid), nil
	}
	return types.WithMetadata(resolved.Oid, "symref-target:"+entry.RefNameWithType), nil
}
