package objects_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/objects"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func TestBaseItem_Generate(t *testing.T) {
	g := memgraph.New("test")
	oid := objid.GitObjectId{1}
	g.PutObjectBytes(oid, []byte("hello"))

	item, err := objects.BaseItem(context.Background(), g.Capabilities().BlobStore(), objid.NonBlobObjects(oid), types.Generate)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), item.RawBytes())
}

func TestBaseItem_FetchOnlyMissingFails(t *testing.T) {
	g := memgraph.New("test")
	oid := objid.GitObjectId{1}

	_, err := objects.BaseItem(context.Background(), g.Capabilities().BlobStore(), objid.NonBlobObjects(oid), types.FetchOnly)
	require.Error(t, err)
	require.True(t, repo.IsRevisionNotFound(err))
}

type failingBlobStore struct{ err error }

func (f failingBlobStore) FetchGitObjectBytes(context.Context, objid.RichGitObjectId) ([]byte, error) {
	return nil, f.err
}
func (f failingBlobStore) FetchNonBlobGitObjectBytes(context.Context, objid.GitObjectId) ([]byte, error) {
	return nil, f.err
}
func (f failingBlobStore) FetchPackfileBaseItemIfExists(context.Context, objid.GitObjectId) ([]byte, bool, error) {
	return nil, false, f.err
}
func (f failingBlobStore) UploadPackfileBaseItem(context.Context, objid.GitObjectId, []byte) error {
	return f.err
}
func (f failingBlobStore) FetchDeltaInstructions(context.Context, objid.ChangesetId, string, types.DeltaOrigin, int) ([][]byte, error) {
	return nil, f.err
}

func TestBaseItem_BlobStoreFailurePropagates(t *testing.T) {
	g := memgraph.New("test")
	boom := errors.New("blob store unavailable")
	overridden := repo.WithOverride(g.Capabilities(), repo.OverrideBlobStore(failingBlobStore{err: boom}))

	_, err := objects.BaseItem(context.Background(), overridden.BlobStore(), objid.NonBlobObjects(objid.GitObjectId{1}), types.FetchOnly)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestBaseItem_FetchAndStoreUploadsOnMiss(t *testing.T) {
	g := memgraph.New("test")
	oid := objid.GitObjectId{1}
	g.PutObjectBytes(oid, []byte("payload"))

	item, err := objects.BaseItem(context.Background(), g.Capabilities().BlobStore(), objid.NonBlobObjects(oid), types.FetchAndStore)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), item.EncodedBytes())

	// second call should now hit the encoded base item the first call stored
	item2, err := objects.BaseItem(context.Background(), g.Capabilities().BlobStore(), objid.NonBlobObjects(oid), types.FetchOnly)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), item2.EncodedBytes())
}
