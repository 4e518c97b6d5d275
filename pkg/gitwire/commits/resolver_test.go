package commits_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/commits"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
)

func TestResolve_ReversesToBasesBeforeDependents(t *testing.T) {
	g := memgraph.New("test")
	c1, c2, c3 := objid.ChangesetId{1}, objid.ChangesetId{2}, objid.ChangesetId{3}
	g.AddCommit(c1, objid.GitObjectId{1})
	g.AddCommit(c2, objid.GitObjectId{2}, c1)
	g.AddCommit(c3, objid.GitObjectId{3}, c2)

	out, err := commits.Resolve(context.Background(), g.Capabilities().CommitGraph(), []objid.ChangesetId{c3}, nil)
	require.NoError(t, err)
	require.Equal(t, []objid.ChangesetId{c1, c2, c3}, out)
}

func TestResolve_ExcludesHaveAncestors(t *testing.T) {
	g := memgraph.New("test")
	c1, c2, c3 := objid.ChangesetId{1}, objid.ChangesetId{2}, objid.ChangesetId{3}
	g.AddCommit(c1, objid.GitObjectId{1})
	g.AddCommit(c2, objid.GitObjectId{2}, c1)
	g.AddCommit(c3, objid.GitObjectId{3}, c2)

	out, err := commits.Resolve(context.Background(), g.Capabilities().CommitGraph(), []objid.ChangesetId{c3}, []objid.ChangesetId{c1})
	require.NoError(t, err)
	require.Equal(t, []objid.ChangesetId{c2, c3}, out)
}

type failingCommitGraph struct{ err error }

func (f failingCommitGraph) AncestorsDifference(context.Context, []objid.ChangesetId, []objid.ChangesetId) ([]objid.ChangesetId, error) {
	return nil, f.err
}

func TestResolve_CommitGraphFailurePropagates(t *testing.T) {
	g := memgraph.New("test")
	boom := errors.New("commit graph unavailable")
	overridden := repo.WithOverride(g.Capabilities(), repo.OverrideCommitGraph(failingCommitGraph{err: boom}))

	_, err := commits.Resolve(context.Background(), overridden.CommitGraph(), []objid.ChangesetId{{1}}, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}
