package translate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/translate"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func TestGitShasToBonsais_DirectCommitMapping(t *testing.T) {
	g := memgraph.New("test")
	cs := objid.ChangesetId{1}
	oid := objid.GitObjectId{1}
	g.AddCommit(cs, oid)

	out, err := translate.GitShasToBonsais(context.Background(), g.Capabilities(), []objid.GitObjectId{oid})
	require.NoError(t, err)
	require.Equal(t, []objid.ChangesetId{cs}, out)
}

func TestGitShasToBonsais_AnnotatedTagFallback(t *testing.T) {
	g := memgraph.New("test")
	cs := objid.ChangesetId{1}
	tagOid := objid.GitObjectId{9}
	g.AddAnnotatedTag("v1", tagOid, cs)
	g.AddBookmark(types.CategoryTag, "v1", cs)

	out, err := translate.GitShasToBonsais(context.Background(), g.Capabilities(), []objid.GitObjectId{tagOid})
	require.NoError(t, err)
	require.Equal(t, []objid.ChangesetId{cs}, out)
}

func TestGitShasToBonsais_UnknownIdSilentlyDropped(t *testing.T) {
	g := memgraph.New("test")
	unknown := objid.GitObjectId{0xff}

	out, err := translate.GitShasToBonsais(context.Background(), g.Capabilities(), []objid.GitObjectId{unknown})
	require.NoError(t, err)
	require.Empty(t, out)
}
