package objid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
)

func TestHashGitObject_StableForSameInput(t *testing.T) {
	a := objid.HashGitObject(objid.KindBlob, []byte("hello"))
	b := objid.HashGitObject(objid.KindBlob, []byte("hello"))
	require.Equal(t, a, b)

	c := objid.HashGitObject(objid.KindBlob, []byte("other"))
	require.NotEqual(t, a, c)
}

func TestParseGitObjectId_RoundTrips(t *testing.T) {
	oid := objid.HashGitObject(objid.KindCommit, []byte("content"))
	parsed, err := objid.ParseGitObjectId(oid.String())
	require.NoError(t, err)
	require.Equal(t, oid, parsed)
}

func TestParseChangesetId_RejectsWrongLength(t *testing.T) {
	_, err := objid.ParseChangesetId("deadbeef")
	require.Error(t, err)
}

func TestObjectIdentifier_Variants(t *testing.T) {
	rich := objid.RichGitObjectId{Oid: objid.GitObjectId{1}, Kind: objid.KindBlob, Size: 42}
	all := objid.AllObjects(rich)
	require.True(t, all.IsAllObjects())
	require.Equal(t, rich, all.Rich())
	require.Equal(t, rich.Oid, all.Oid())

	nonBlob := objid.NonBlobObjects(objid.GitObjectId{2})
	require.False(t, nonBlob.IsAllObjects())
	require.Equal(t, objid.GitObjectId{2}, nonBlob.Oid())
}
