package delta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zetaforge/gitwire/internal/memgraph"
	"github.com/zetaforge/gitwire/pkg/gitwire/delta"
	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

func TestChoose_ExcludeNeverSelectsADelta(t *testing.T) {
	entry := types.GitDeltaManifestEntry{
		Full: types.GitDeltaManifestFull{Size: 1000},
		Deltas: []types.GitDeltaManifestDelta{
			{InstructionsCompressedSize: 10},
		},
	}
	_, ok := delta.Choose(entry, types.DeltaExclude())
	require.False(t, ok)
}

func TestChoose_ThresholdGatesSelection(t *testing.T) {
	entry := types.GitDeltaManifestEntry{
		Full: types.GitDeltaManifestFull{Size: 1000},
		Deltas: []types.GitDeltaManifestDelta{
			{InstructionsCompressedSize: 900}, // 0.9 * size, fails a 0.5 threshold
			{InstructionsCompressedSize: 100}, // 0.1 * size, passes
		},
	}
	d, ok := delta.Choose(entry, types.DeltaInclude(0.5))
	require.True(t, ok)
	require.Equal(t, int64(100), d.InstructionsCompressedSize)
}

func TestChoose_NoDeltaBelowThreshold(t *testing.T) {
	entry := types.GitDeltaManifestEntry{
		Full: types.GitDeltaManifestFull{Size: 1000},
		Deltas: []types.GitDeltaManifestDelta{
			{InstructionsCompressedSize: 900},
		},
	}
	_, ok := delta.Choose(entry, types.DeltaInclude(0.5))
	require.False(t, ok)
}

func TestPackfileEntryFor_UsesChosenDelta(t *testing.T) {
	g := memgraph.New("test")
	cs := objid.ChangesetId{1}
	baseOid := objid.GitObjectId{2}
	targetOid := objid.GitObjectId{3}
	g.PutDeltaChunks(cs, "a.txt", "origin-1", [][]byte{[]byte("hello "), []byte("world")})

	entry := types.GitDeltaManifestEntry{
		Path: "a.txt",
		Kind: objid.KindBlob,
		Full: types.GitDeltaManifestFull{Oid: targetOid, Size: 1000},
		Deltas: []types.GitDeltaManifestDelta{
			{
				BaseOid:                      baseOid,
				InstructionsChunkCount:       2,
				InstructionsCompressedSize:   11,
				InstructionsUncompressedSize: 11,
				Origin:                       "origin-1",
			},
		},
	}

	item, err := delta.PackfileEntryFor(context.Background(), g.Capabilities().BlobStore(), cs, entry, types.DeltaInclude(0.5), types.Generate)
	require.NoError(t, err)
	require.True(t, item.IsDelta())
	require.Equal(t, baseOid, item.BaseOid())
	require.Equal(t, "hello world", string(item.InstructionBytes()))
}

func TestPackfileEntryFor_FallsBackToBaseWhenNoDeltaQualifies(t *testing.T) {
	g := memgraph.New("test")
	cs := objid.ChangesetId{1}
	targetOid := objid.GitObjectId{3}
	g.PutObjectBytes(targetOid, []byte("raw bytes"))

	entry := types.GitDeltaManifestEntry{
		Path: "a.txt",
		Kind: objid.KindBlob,
		Full: types.GitDeltaManifestFull{Oid: targetOid, Size: 9},
	}

	item, err := delta.PackfileEntryFor(context.Background(), g.Capabilities().BlobStore(), cs, entry, types.DeltaExclude(), types.Generate)
	require.NoError(t, err)
	require.False(t, item.IsDelta())
	require.Equal(t, []byte("raw bytes"), item.RawBytes())
}
