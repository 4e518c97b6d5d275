// Package repo declares the collaborator capability set every handler
// in pkg/gitwire depends on, and a dangerous-override seam for
// substituting individual sub-interfaces in tests.
package repo

import (
	"context"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

// BookmarkEntry is one row from Bookmarks.List.
type BookmarkEntry struct {
	Key types.BookmarkKey
	Cs  objid.ChangesetId
}

// Bookmarks lists publishing bookmarks from the most recent snapshot.
type Bookmarks interface {
	List(ctx context.Context) ([]BookmarkEntry, error)
}

// BonsaiGitMapping translates between bonsai changesets and Git object
// ids for commits.
type BonsaiGitMapping interface {
	GetGitShas(ctx context.Context, cs []objid.ChangesetId) (map[objid.ChangesetId]objid.GitObjectId, error)
	GetBonsais(ctx context.Context, shas []objid.GitObjectId) (map[objid.GitObjectId]objid.ChangesetId, error)
}

// TagEntry is one row from BonsaiTagMapping.GetAllEntries.
type TagEntry struct {
	TagName string
	TagHash objid.GitObjectId
	Cs      objid.ChangesetId
}

// BonsaiTagMapping translates between bonsai changesets and annotated
// Git tag objects.
type BonsaiTagMapping interface {
	GetAllEntries(ctx context.Context) ([]TagEntry, error)
	GetEntriesByTagHashes(ctx context.Context, hashes []objid.GitObjectId) ([]TagEntry, error)
}

// SymrefEntry is one symbolic ref.
type SymrefEntry struct {
	SymrefName     string
	RefNameWithType string // e.g. "refs/heads/main"
}

// Symrefs exposes the server's symbolic refs (canonically HEAD).
type Symrefs interface {
	GetBySymrefName(ctx context.Context, name string) (SymrefEntry, error)
	ListAll(ctx context.Context) ([]SymrefEntry, error)
}

// CommitGraph exposes ancestry queries over the bonsai commit DAG.
type CommitGraph interface {
	// AncestorsDifference streams ancestors(heads) \ ancestors(haves),
	// newest-first; the Commit Set Resolver reverses the result.
	AncestorsDifference(ctx context.Context, heads, haves []objid.ChangesetId) ([]objid.ChangesetId, error)
}

// DerivedData produces the per-changeset Git delta manifest.
type DerivedData interface {
	DeriveGitDeltaManifest(ctx context.Context, cs objid.ChangesetId) ([]types.GitDeltaManifestEntry, error)
}

// BlobStore is the content-addressed store backing raw object bytes,
// pre-encoded packfile base items, and delta-instruction chunks.
type BlobStore interface {
	// FetchGitObjectBytes reads any object's raw bytes, routing blobs to
	// the file-content keyspace using kind/size from rich.
	FetchGitObjectBytes(ctx context.Context, rich objid.RichGitObjectId) ([]byte, error)
	// FetchNonBlobGitObjectBytes reads a non-blob object's raw bytes
	// directly by id.
	FetchNonBlobGitObjectBytes(ctx context.Context, oid objid.GitObjectId) ([]byte, error)
	// FetchPackfileBaseItemIfExists returns (bytes, true, nil) on hit,
	// (nil, false, nil) on a clean miss.
	FetchPackfileBaseItemIfExists(ctx context.Context, oid objid.GitObjectId) ([]byte, bool, error)
	UploadPackfileBaseItem(ctx context.Context, oid objid.GitObjectId, encoded []byte) error
	// FetchDeltaInstructions streams chunkCount ordered chunks keyed by
	// (cs, path, origin).
	FetchDeltaInstructions(ctx context.Context, cs objid.ChangesetId, path string, origin types.DeltaOrigin, chunkCount int) ([][]byte, error)
}

// Identity names the repository for error context.
type Identity interface {
	Name() string
}

// Capabilities is the single aggregate every handler in pkg/gitwire
// takes, per the Design Notes' "depends on a capability set"
// instruction. Implementations compose real adapters (internal/sqlrepo +
// internal/ossblob + internal/objcache) or an in-memory test double
// (internal/memgraph).
type Capabilities interface {
	Bookmarks() Bookmarks
	BonsaiGitMapping() BonsaiGitMapping
	BonsaiTagMapping() BonsaiTagMapping
	Symrefs() Symrefs
	CommitGraph() CommitGraph
	DerivedData() DerivedData
	BlobStore() BlobStore
	Identity() Identity
}

// capabilities is the default struct-of-interfaces implementation;
// WithOverride wraps one of these (or any other Capabilities) to swap
// individual sub-interfaces.
type capabilities struct {
	bookmarks   Bookmarks
	gitMapping  BonsaiGitMapping
	tagMapping  BonsaiTagMapping
	symrefs     Symrefs
	commitGraph CommitGraph
	derivedData DerivedData
	blobStore   BlobStore
	identity    Identity
}

func New(
	bookmarks Bookmarks,
	gitMapping BonsaiGitMapping,
	tagMapping BonsaiTagMapping,
	symrefs Symrefs,
	commitGraph CommitGraph,
	derivedData DerivedData,
	blobStore BlobStore,
	identity Identity,
) Capabilities {
	return &capabilities{
		bookmarks:   bookmarks,
		gitMapping:  gitMapping,
		tagMapping:  tagMapping,
		symrefs:     symrefs,
		commitGraph: commitGraph,
		derivedData: derivedData,
		blobStore:   blobStore,
		identity:    identity,
	}
}

func (c *capabilities) Bookmarks() Bookmarks                 { return c.bookmarks }
func (c *capabilities) BonsaiGitMapping() BonsaiGitMapping    { return c.gitMapping }
func (c *capabilities) BonsaiTagMapping() BonsaiTagMapping    { return c.tagMapping }
func (c *capabilities) Symrefs() Symrefs                     { return c.symrefs }
func (c *capabilities) CommitGraph() CommitGraph              { return c.commitGraph }
func (c *capabilities) DerivedData() DerivedData              { return c.derivedData }
func (c *capabilities) BlobStore() BlobStore                  { return c.blobStore }
func (c *capabilities) Identity() Identity                    { return c.identity }

// Override is a functional modifier applied by WithOverride; it receives
// the current capabilities and returns a replacement set, mirroring the
// "dangerous_override" pattern of substituting one field of an otherwise
// cloned aggregate.
type Override func(Capabilities) Capabilities

// WithOverride returns a Capabilities value with modify applied on top
// of base. This is the test-only "dangerous override" scaffolding: it
// exists so a test can substitute, say, a failing BlobStore without
// rebuilding every other collaborator. Production code has no reason to
// call this.
func WithOverride(base Capabilities, modify Override) Capabilities {
	return modify(base)
}

// OverrideBookmarks returns an Override that replaces only Bookmarks.
func OverrideBookmarks(b Bookmarks) Override {
	return func(c Capabilities) Capabilities {
		return &capabilities{
			bookmarks:   b,
			gitMapping:  c.BonsaiGitMapping(),
			tagMapping:  c.BonsaiTagMapping(),
			symrefs:     c.Symrefs(),
			commitGraph: c.CommitGraph(),
			derivedData: c.DerivedData(),
			blobStore:   c.BlobStore(),
			identity:    c.Identity(),
		}
	}
}

// OverrideBlobStore returns an Override that replaces only BlobStore.
func OverrideBlobStore(bs BlobStore) Override {
	return func(c Capabilities) Capabilities {
		return &capabilities{
			bookmarks:   c.Bookmarks(),
			gitMapping:  c.BonsaiGitMapping(),
			tagMapping:  c.BonsaiTagMapping(),
			symrefs:     c.Symrefs(),
			commitGraph: c.CommitGraph(),
			derivedData: c.DerivedData(),
			blobStore:   bs,
			identity:    c.Identity(),
		}
	}
}

// OverrideCommitGraph returns an Override that replaces only CommitGraph.
func OverrideCommitGraph(g CommitGraph) Override {
	return func(c Capabilities) Capabilities {
		return &capabilities{
			bookmarks:   c.Bookmarks(),
			gitMapping:  c.BonsaiGitMapping(),
			tagMapping:  c.BonsaiTagMapping(),
			symrefs:     c.Symrefs(),
			commitGraph: g,
			derivedData: c.DerivedData(),
			blobStore:   c.BlobStore(),
			identity:    c.Identity(),
		}
	}
}
