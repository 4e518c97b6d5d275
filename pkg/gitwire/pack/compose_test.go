package pack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/pack"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func TestGeneratePackItemStream_EmptyRepo(t *testing.T) {
	g := memgraph.New("empty")
	req := types.GeneratePackItemStreamRequest{
		RequestedRefs:         types.RefsExcluded(),
		RequestedSymrefs:      types.SymrefsExcludeAll(),
		TagInclusion:          types.TagAsIs,
		DeltaInclusion:        types.DeltaExclude(),
		PackfileItemInclusion: types.Generate,
	}
	result, err := pack.GeneratePackItemStream(context.Background(), g.Capabilities(), req)
	require.NoError(t, err)
	require.Equal(t, 0, result.ObjectCount)
	require.Empty(t, result.RefMap)
	require.Empty(t, result.Items)
}

func TestGeneratePackItemStream_SingleCommitDeltaOff(t *testing.T) {
	g := memgraph.New("single")
	c1 := objid.ChangesetId{1}
	commitOid := objid.GitObjectId{1}
	treeOid := objid.GitObjectId{2}
	blobOid := objid.GitObjectId{3}

	g.AddCommit(c1, commitOid)
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.PutObjectBytes(commitOid, []byte("commit bytes"))
	g.PutObjectBytes(treeOid, []byte("tree bytes"))
	g.PutObjectBytes(blobOid, []byte("blob bytes"))
	g.SetManifest(c1, []types.GitDeltaManifestEntry{
		{Path: "", Kind: objid.KindTree, Full: types.GitDeltaManifestFull{Oid: treeOid, Size: 10}},
		{Path: "file.txt", Kind: objid.KindBlob, Full: types.GitDeltaManifestFull{Oid: blobOid, Size: 10}},
	})

	req := types.GeneratePackItemStreamRequest{
		RequestedRefs:         types.RefsIncludedWithPrefix("refs/"),
		RequestedSymrefs:      types.SymrefsExcludeAll(),
		TagInclusion:          types.TagAsIs,
		DeltaInclusion:        types.DeltaExclude(),
		PackfileItemInclusion: types.Generate,
	}
	result, err := pack.GeneratePackItemStream(context.Background(), g.Capabilities(), req)
	require.NoError(t, err)
	require.Equal(t, 3, result.ObjectCount)
	require.Len(t, result.Items, 3)
	require.Contains(t, result.RefMap, "refs/heads/main")
	for _, item := range result.Items {
		require.False(t, item.IsDelta())
	}
}

func TestGeneratePackItemStream_CustomWindowsSameResult(t *testing.T) {
	g := memgraph.New("single")
	c1 := objid.ChangesetId{1}
	commitOid := objid.GitObjectId{1}
	treeOid := objid.GitObjectId{2}
	blobOid := objid.GitObjectId{3}

	g.AddCommit(c1, commitOid)
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.PutObjectBytes(commitOid, []byte("commit bytes"))
	g.PutObjectBytes(treeOid, []byte("tree bytes"))
	g.PutObjectBytes(blobOid, []byte("blob bytes"))
	g.SetManifest(c1, []types.GitDeltaManifestEntry{
		{Path: "", Kind: objid.KindTree, Full: types.GitDeltaManifestFull{Oid: treeOid, Size: 10}},
		{Path: "file.txt", Kind: objid.KindBlob, Full: types.GitDeltaManifestFull{Oid: blobOid, Size: 10}},
	})

	req := types.GeneratePackItemStreamRequest{
		RequestedRefs:         types.RefsIncludedWithPrefix("refs/"),
		RequestedSymrefs:      types.SymrefsExcludeAll(),
		TagInclusion:          types.TagAsIs,
		DeltaInclusion:        types.DeltaExclude(),
		PackfileItemInclusion: types.Generate,
		Windows:               types.Windows{CommitWindow: 1, EntryWindow: 1},
	}
	result, err := pack.GeneratePackItemStream(context.Background(), g.Capabilities(), req)
	require.NoError(t, err)
	require.Equal(t, 3, result.ObjectCount)
	require.Len(t, result.Items, 3)
	require.Contains(t, result.RefMap, "refs/heads/main")
}

func TestFetchResponse_IncrementalFetchScenario(t *testing.T) {
	g := memgraph.New("fetch")
	c1, c2, c3 := objid.ChangesetId{1}, objid.ChangesetId{2}, objid.ChangesetId{3}
	o1, o2, o3 := objid.GitObjectId{1}, objid.GitObjectId{2}, objid.GitObjectId{3}
	g.AddCommit(c1, o1)
	g.AddCommit(c2, o2, c1)
	g.AddCommit(c3, o3, c2)
	g.AddBookmark(types.CategoryBranch, "main", c3)

	for _, oid := range []objid.GitObjectId{o1, o2, o3} {
		g.PutObjectBytes(oid, []byte{byte(oid[0])})
	}
	tb2, tb3 := objid.GitObjectId{20}, objid.GitObjectId{30}
	g.PutObjectBytes(tb2, []byte("tree2"))
	g.PutObjectBytes(tb3, []byte("tree3"))
	g.SetManifest(c2, []types.GitDeltaManifestEntry{
		{Path: "", Kind: objid.KindTree, Full: types.GitDeltaManifestFull{Oid: tb2, Size: 5}},
	})
	g.SetManifest(c3, []types.GitDeltaManifestEntry{
		{Path: "", Kind: objid.KindTree, Full: types.GitDeltaManifestFull{Oid: tb3, Size: 5}},
	})

	req := types.FetchRequest{
		Bases: []objid.GitObjectId{o1},
		Heads: []objid.GitObjectId{o3},
	}
	result, err := pack.FetchResponse(context.Background(), g.Capabilities(), req, types.DeltaInclude(0.5))
	require.NoError(t, err)
	require.Nil(t, result.RefMap)
	// commits(2) + distinct trees(2) + all annotated tags(0)
	require.Equal(t, 4, result.ObjectCount)
	require.Len(t, result.Items, 4)
}

// P2: object_count equals the number of items yielded.
func TestProperty_ObjectCountMatchesItemCount(t *testing.T) {
	g := memgraph.New("p2")
	c1 := objid.ChangesetId{1}
	o1 := objid.GitObjectId{1}
	g.AddCommit(c1, o1)
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.PutObjectBytes(o1, []byte("commit"))

	req := types.GeneratePackItemStreamRequest{
		RequestedRefs:         types.RefsIncludedWithPrefix("refs/"),
		RequestedSymrefs:      types.SymrefsExcludeAll(),
		TagInclusion:          types.TagAsIs,
		DeltaInclusion:        types.DeltaExclude(),
		PackfileItemInclusion: types.Generate,
	}
	result, err := pack.GeneratePackItemStream(context.Background(), g.Capabilities(), req)
	require.NoError(t, err)
	require.Equal(t, len(result.Items), result.ObjectCount)
}

// P1: ls_refs_response's ref map equals the ref map returned by
// generate_pack_item_stream for the same ref/symref/tag-inclusion
// parameters.
func TestProperty_LsRefsMatchesCloneRefMap(t *testing.T) {
	g := memgraph.New("p1")
	c1 := objid.ChangesetId{1}
	o1 := objid.GitObjectId{1}
	g.AddCommit(c1, o1)
	g.AddBookmark(types.CategoryBranch, "main", c1)
	g.PutObjectBytes(o1, []byte("commit"))

	lsReq := types.LsRefsRequest{
		RequestedRefs:    types.RefsIncludedWithPrefix("refs/"),
		RequestedSymrefs: types.SymrefsExcludeAll(),
		TagInclusion:     types.TagAsIs,
	}
	lsRefs, err := pack.LsRefsResponse(context.Background(), g.Capabilities(), lsReq)
	require.NoError(t, err)

	cloneReq := types.GeneratePackItemStreamRequest{
		RequestedRefs:         lsReq.RequestedRefs,
		RequestedSymrefs:      lsReq.RequestedSymrefs,
		TagInclusion:          lsReq.TagInclusion,
		DeltaInclusion:        types.DeltaExclude(),
		PackfileItemInclusion: types.Generate,
	}
	cloneResult, err := pack.GeneratePackItemStream(context.Background(), g.Capabilities(), cloneReq)
	require.NoError(t, err)

	require.Equal(t, lsRefs, cloneResult.RefMap)
}
