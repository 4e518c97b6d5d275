package refs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/refs"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func mkCs(b byte) objid.ChangesetId {
	var id objid.ChangesetId
	id[0] = b
	return id
}

func mkOid(b byte) objid.GitObjectId {
	var id objid.GitObjectId
	id[0] = b
	return id
}

func TestResolve_BranchOrSimpleTag(t *testing.T) {
	g := memgraph.New("test")
	c1 := mkCs(1)
	g.AddCommit(c1, mkOid(1))
	g.AddBookmark(types.CategoryBranch, "main", c1)

	refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("main"), types.SymrefsExcludeAll(), types.TagAsIs)
	require.NoError(t, err)
	require.Equal(t, types.Plain(mkOid(1)), refMap["refs/heads/main"])
}

func TestResolve_MissingGitMappingFails(t *testing.T) {
	g := memgraph.New("test")
	c1 := mkCs(1)
	// Bookmark exists but no git mapping registered for c1.
	g.AddBookmark(types.CategoryBranch, "main", c1)

	_, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("main"), types.SymrefsExcludeAll(), types.TagAsIs)
	require.Error(t, err)
	require.True(t, repo.IsMappingMissing(err))
}

func TestResolve_AnnotatedTagThreeModes(t *testing.T) {
	c1 := mkCs(1)
	commitOid := mkOid(1)
	tagOid := mkOid(2)

	newGraph := func() *memgraph.Graph {
		g := memgraph.New("test")
		g.AddCommit(c1, commitOid)
		g.AddBookmark(types.CategoryTag, "v1", c1)
		g.AddAnnotatedTag("v1", tagOid, c1)
		return g
	}

	t.Run("AsIs", func(t *testing.T) {
		g := newGraph()
		refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("v1"), types.SymrefsExcludeAll(), types.TagAsIs)
		require.NoError(t, err)
		require.Equal(t, types.Plain(tagOid), refMap["refs/tags/v1"])
	})

	t.Run("Peeled", func(t *testing.T) {
		g := newGraph()
		refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("v1"), types.SymrefsExcludeAll(), types.TagPeeled)
		require.NoError(t, err)
		require.Equal(t, types.Plain(commitOid), refMap["refs/tags/v1"])
	})

	t.Run("WithTarget", func(t *testing.T) {
		g := newGraph()
		refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("v1"), types.SymrefsExcludeAll(), types.TagWithTarget)
		require.NoError(t, err)
		want := types.WithMetadata(tagOid, "peeled:"+commitOid.String())
		require.Equal(t, want, refMap["refs/tags/v1"])
	})
}

func TestResolve_SymrefHead(t *testing.T) {
	g := memgraph.New("test")
	c1 := mkCs(1)
	g.AddCommit(c1, mkOid(1))
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.SetSymref("HEAD", "refs/heads/main")

	refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncluded("main"), types.SymrefsIncludeHead(types.NameWithTarget), types.TagAsIs)
	require.NoError(t, err)
	want := types.WithMetadata(mkOid(1), "symref-target:refs/heads/main")
	require.Equal(t, want, refMap["HEAD"])
}

func TestResolve_IncludedWithValueSynthetic(t *testing.T) {
	g := memgraph.New("test")
	x := mkCs(9)
	xOid := mkOid(9)
	g.AddCommit(x, xOid)

	reqRefs := types.RefsIncludedWithValue(map[string]objid.ChangesetId{"unknown": x})
	refMap, err := refs.Resolve(context.Background(), g.Capabilities(), reqRefs, types.SymrefsExcludeAll(), types.TagAsIs)
	require.NoError(t, err)
	require.Equal(t, types.Plain(xOid), refMap["refs/heads/unknown"])
}

func TestResolve_IncludedWithPrefixMatchesBareName(t *testing.T) {
	g := memgraph.New("test")
	c1, c2 := mkCs(1), mkCs(2)
	g.AddCommit(c1, mkOid(1))
	g.AddCommit(c2, mkOid(2))
	g.AddBookmark(types.CategoryBranch, "feature-x", c1)
	g.AddBookmark(types.CategoryBranch, "main", c2)

	refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsIncludedWithPrefix("refs/feature-"), types.SymrefsExcludeAll(), types.TagAsIs)
	require.NoError(t, err)
	require.Contains(t, refMap, "refs/heads/feature-x")
	require.NotContains(t, refMap, "refs/heads/main")
}

type failingBookmarks struct{ err error }

func (f failingBookmarks) List(context.Context) ([]repo.BookmarkEntry, error) {
	return nil, f.err
}

func TestResolve_BookmarksListFailurePropagates(t *testing.T) {
	g := memgraph.New("test")
	boom := errors.New("bookmarks store unavailable")
	overridden := repo.WithOverride(g.Capabilities(), repo.OverrideBookmarks(failingBookmarks{err: boom}))

	_, err := refs.Resolve(context.Background(), overridden, types.RefsIncluded("main"), types.SymrefsExcludeAll(), types.TagAsIs)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestResolve_ExcludedFiltersOutNamedBookmark(t *testing.T) {
	g := memgraph.New("test")
	c1, c2 := mkCs(1), mkCs(2)
	g.AddCommit(c1, mkOid(1))
	g.AddCommit(c2, mkOid(2))
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.AddBookmark(types.CategoryBranch, "dev", c2)

	refMap, err := refs.Resolve(context.Background(), g.Capabilities(), types.RefsExcluded("dev"), types.SymrefsExcludeAll(), types.TagAsIs)
	require.NoError(t, err)
	require.Contains(t, refMap, "refs/heads/main")
	require.NotContains(t, refMap, "refs/heads/dev")
}
