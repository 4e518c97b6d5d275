// Package translate implements git-sha to bonsai translation used by
// the fetch handler, grounded on git_shas_to_bonsais: a two-step
// fallback through the bonsai-tag mapping for ids that aren't known
// commits, with unresolved ids silently dropped.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
)

// GitShasToBonsais resolves a set of Git object ids to changeset ids.
// Ids with a direct commit mapping resolve immediately. The remainder
// are probed against the bonsai-tag mapping by hash to recover a tag
// name, which is then matched against "tags/<name>" bookmarks to find
// the underlying changeset. An id that is neither a known commit nor a
// resolvable annotated tag is silently dropped — the caller relies on
// this to tolerate clients advertising refs the server no longer has.
func GitShasToBonsais(ctx context.Context, caps repo.Capabilities, shas []objid.GitObjectId) ([]objid.ChangesetId, error) {
	fromCommits, err := caps.BonsaiGitMapping().GetBonsais(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("translate: resolving bonsai-git mapping: %w", err)
	}

	var unresolved []objid.GitObjectId
	result := make([]objid.ChangesetId, 0, len(shas))
	for _, sha := range shas {
		if cs, ok := fromCommits[sha]; ok {
			result = append(result, cs)
			continue
		}
		unresolved = append(unresolved, sha)
	}
	if len(unresolved) == 0 {
		return result, nil
	}

	tagEntries, err := caps.BonsaiTagMapping().GetEntriesByTagHashes(ctx, unresolved)
	if err != nil {
		return nil, fmt.Errorf("translate: resolving bonsai-tag mapping: %w", err)
	}
	tagNames := make(map[string]struct{}, len(tagEntries))
	for _, t := range tagEntries {
		tagNames[t.TagName] = struct{}{}
	}
	if len(tagNames) == 0 {
		return result, nil
	}

	bookmarks, err := caps.Bookmarks().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("translate: listing bookmarks: %w", err)
	}
	for _, b := range bookmarks {
		if !strings.EqualFold(b.Key.Category.String(), "tags") {
			continue
		}
		if _, ok := tagNames[b.Key.Name]; ok {
			result = append(result, b.Cs)
		}
	}
	return result, nil
}
