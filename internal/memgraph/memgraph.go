// Package memgraph is an in-memory implementation of
// pkg/gitwire/repo.Capabilities, used by the pkg/gitwire/... tests that
// need collaborators (the objid and concurrency tests do not) and by the
// demo server when no database is configured. Grounded on
// the teacher's hand-built commit DAG fixtures in
// modules/zeta/object/commit_walker_topo_order_test.go, generalized into
// a reusable builder covering every capability the pipeline needs
// instead of just commit ancestry.
package memgraph

import (
	"context"
	"fmt"
	"sort"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

// Commit is one node in the fixture DAG.
type Commit struct {
	Id      objid.ChangesetId
	Parents []objid.ChangesetId
}

// Graph is the in-memory fixture: a commit DAG plus every mapping table
// and blob-store entry the pipeline reads from.
type Graph struct {
	name string

	commits map[objid.ChangesetId]Commit

	bookmarks []repo.BookmarkEntry
	gitShas   map[objid.ChangesetId]objid.GitObjectId
	tagEntries []repo.TagEntry
	symrefs   map[string]repo.SymrefEntry

	manifests map[objid.ChangesetId][]types.GitDeltaManifestEntry

	objectBytes    map[objid.GitObjectId][]byte
	encodedBase    map[objid.GitObjectId][]byte
	deltaChunks    map[string][][]byte
}

// New returns an empty fixture graph named name, used for error context.
func New(name string) *Graph {
	return &Graph{
		name:        name,
		commits:     make(map[objid.ChangesetId]Commit),
		gitShas:     make(map[objid.ChangesetId]objid.GitObjectId),
		symrefs:     make(map[string]repo.SymrefEntry),
		manifests:   make(map[objid.ChangesetId][]types.GitDeltaManifestEntry),
		objectBytes: make(map[objid.GitObjectId][]byte),
		encodedBase: make(map[objid.GitObjectId][]byte),
		deltaChunks: make(map[string][][]byte),
	}
}

// AddCommit registers a changeset with its parents and its Git commit
// object id.
func (g *Graph) AddCommit(cs objid.ChangesetId, gitOid objid.GitObjectId, parents ...objid.ChangesetId) {
	g.commits[cs] = Commit{Id: cs, Parents: parents}
	g.gitShas[cs] = gitOid
}

// AddBookmark registers a branch or tag bookmark pointing at cs.
func (g *Graph) AddBookmark(category types.BookmarkCategory, name string, cs objid.ChangesetId) {
	g.bookmarks = append(g.bookmarks, repo.BookmarkEntry{
		Key: types.BookmarkKey{Category: category, Name: name},
		Cs:  cs,
	})
}

// AddAnnotatedTag registers a tag object (distinct from the bookmark
// pointing at it) for tagName, wrapping commit cs.
func (g *Graph) AddAnnotatedTag(tagName string, tagOid objid.GitObjectId, cs objid.ChangesetId) {
	g.tagEntries = append(g.tagEntries, repo.TagEntry{TagName: tagName, TagHash: tagOid, Cs: cs})
}

// SetSymref registers a symbolic ref.
func (g *Graph) SetSymref(name, targetRefWithType string) {
	g.symrefs[name] = repo.SymrefEntry{SymrefName: name, RefNameWithType: targetRefWithType}
}

// SetManifest registers the root delta manifest entries for cs.
func (g *Graph) SetManifest(cs objid.ChangesetId, entries []types.GitDeltaManifestEntry) {
	g.manifests[cs] = entries
}

// PutObjectBytes registers raw object bytes for oid.
func (g *Graph) PutObjectBytes(oid objid.GitObjectId, raw []byte) {
	g.objectBytes[oid] = raw
}

// PutEncodedBase pre-seeds the encoded-base cache for oid, simulating a
// pre-computed packfile base item already present in the blob store.
func (g *Graph) PutEncodedBase(oid objid.GitObjectId, encoded []byte) {
	g.encodedBase[oid] = encoded
}

// PutDeltaChunks registers the ordered instruction chunks for a
// (cs, path, origin) key.
func (g *Graph) PutDeltaChunks(cs objid.ChangesetId, path string, origin types.DeltaOrigin, chunks [][]byte) {
	g.deltaChunks[deltaKey(cs, path, origin)] = chunks
}

func deltaKey(cs objid.ChangesetId, path string, origin types.DeltaOrigin) string {
	return fmt.Sprintf("%s:%s:%s", cs, path, origin)
}

// Capabilities returns a repo.Capabilities backed entirely by this
// fixture's in-memory data.
func (g *Graph) Capabilities() repo.Capabilities {
	return repo.New(
		&bookmarksImpl{g},
		&gitMappingImpl{g},
		&tagMappingImpl{g},
		&symrefsImpl{g},
		&commitGraphImpl{g},
		&derivedDataImpl{g},
		&blobStoreImpl{g},
		&identityImpl{g},
	)
}

type bookmarksImpl struct{ g *Graph }

func (b *bookmarksImpl) List(ctx context.Context) ([]repo.BookmarkEntry, error) {
	out := make([]repo.BookmarkEntry, len(b.g.bookmarks))
	copy(out, b.g.bookmarks)
	return out, nil
}

type gitMappingImpl struct{ g *Graph }

func (m *gitMappingImpl) GetGitShas(ctx context.Context, cs []objid.ChangesetId) (map[objid.ChangesetId]objid.GitObjectId, error) {
	out := make(map[objid.ChangesetId]objid.GitObjectId, len(cs))
	for _, c := range cs {
		if oid, ok := m.g.gitShas[c]; ok {
			out[c] = oid
		}
	}
	return out, nil
}

func (m *gitMappingImpl) GetBonsais(ctx context.Context, shas []objid.GitObjectId) (map[objid.GitObjectId]objid.ChangesetId, error) {
	reverse := make(map[objid.GitObjectId]objid.ChangesetId, len(m.g.gitShas))
	for cs, oid := range m.g.gitShas {
		reverse[oid] = cs
	}
	out := make(map[objid.GitObjectId]objid.ChangesetId)
	for _, sha := range shas {
		if cs, ok := reverse[sha]; ok {
			out[sha] = cs
		}
	}
	return out, nil
}

type tagMappingImpl struct{ g *Graph }

func (t *tagMappingImpl) GetAllEntries(ctx context.Context) ([]repo.TagEntry, error) {
	out := make([]repo.TagEntry, len(t.g.tagEntries))
	copy(out, t.g.tagEntries)
	return out, nil
}

func (t *tagMappingImpl) GetEntriesByTagHashes(ctx context.Context, hashes []objid.GitObjectId) ([]repo.TagEntry, error) {
	wanted := make(map[objid.GitObjectId]struct{}, len(hashes))
	for _, h := range hashes {
		wanted[h] = struct{}{}
	}
	var out []repo.TagEntry
	for _, e := range t.g.tagEntries {
		if _, ok := wanted[e.TagHash]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

type symrefsImpl struct{ g *Graph }

func (s *symrefsImpl) GetBySymrefName(ctx context.Context, name string) (repo.SymrefEntry, error) {
	e, ok := s.g.symrefs[name]
	if !ok {
		return repo.SymrefEntry{}, &repo.RevisionNotFoundError{Revision: name}
	}
	return e, nil
}

func (s *symrefsImpl) ListAll(ctx context.Context) ([]repo.SymrefEntry, error) {
	out := make([]repo.SymrefEntry, 0, len(s.g.symrefs))
	names := make([]string, 0, len(s.g.symrefs))
	for name := range s.g.symrefs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, s.g.symrefs[name])
	}
	return out, nil
}

type commitGraphImpl struct{ g *Graph }

// AncestorsDifference performs a stack-based depth-first walk from heads,
// excluding anything reachable from haves, and returns results
// newest-discovered-first (matching the streaming source's order, which
// commits.Resolve then reverses).
func (c *commitGraphImpl) AncestorsDifference(ctx context.Context, heads, haves []objid.ChangesetId) ([]objid.ChangesetId, error) {
	excluded := make(map[objid.ChangesetId]bool)
	var stack []objid.ChangesetId
	stack = append(stack, haves...)
	for len(stack) > 0 {
		cs := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if excluded[cs] {
			continue
		}
		excluded[cs] = true
		commit, ok := c.g.commits[cs]
		if !ok {
			continue
		}
		stack = append(stack, commit.Parents...)
	}

	visited := make(map[objid.ChangesetId]bool)
	var order []objid.ChangesetId
	var walk []objid.ChangesetId
	walk = append(walk, heads...)
	for len(walk) > 0 {
		cs := walk[len(walk)-1]
		walk = walk[:len(walk)-1]
		if visited[cs] || excluded[cs] {
			continue
		}
		visited[cs] = true
		order = append(order, cs)
		commit, ok := c.g.commits[cs]
		if !ok {
			continue
		}
		walk = append(walk, commit.Parents...)
	}
	return order, nil
}

type derivedDataImpl struct{ g *Graph }

func (d *derivedDataImpl) DeriveGitDeltaManifest(ctx context.Context, cs objid.ChangesetId) ([]types.GitDeltaManifestEntry, error) {
	entries, ok := d.g.manifests[cs]
	if !ok {
		return nil, nil
	}
	out := make([]types.GitDeltaManifestEntry, len(entries))
	copy(out, entries)
	return out, nil
}

type blobStoreImpl struct{ g *Graph }

func (b *blobStoreImpl) FetchGitObjectBytes(ctx context.Context, rich objid.RichGitObjectId) ([]byte, error) {
	raw, ok := b.g.objectBytes[rich.Oid]
	if !ok {
		return nil, &repo.RevisionNotFoundError{Revision: rich.Oid.String()}
	}
	return raw, nil
}

func (b *blobStoreImpl) FetchNonBlobGitObjectBytes(ctx context.Context, oid objid.GitObjectId) ([]byte, error) {
	raw, ok := b.g.objectBytes[oid]
	if !ok {
		return nil, &repo.RevisionNotFoundError{Revision: oid.String()}
	}
	return raw, nil
}

func (b *blobStoreImpl) FetchPackfileBaseItemIfExists(ctx context.Context, oid objid.GitObjectId) ([]byte, bool, error) {
	encoded, ok := b.g.encodedBase[oid]
	return encoded, ok, nil
}

func (b *blobStoreImpl) UploadPackfileBaseItem(ctx context.Context, oid objid.GitObjectId, encoded []byte) error {
	b.g.encodedBase[oid] = encoded
	return nil
}

func (b *blobStoreImpl) FetchDeltaInstructions(ctx context.Context, cs objid.ChangesetId, path string, origin types.DeltaOrigin, chunkCount int) ([][]byte, error) {
	chunks, ok := b.g.deltaChunks[deltaKey(cs, path, origin)]
	if !ok {
		return nil, &repo.RevisionNotFoundError{Revision: deltaKey(cs, path, origin)}
	}
	if len(chunks) != chunkCount {
		return nil, fmt.Errorf("memgraph: delta instruction chunk count mismatch for %s: want %d, have %d", path, chunkCount, len(chunks))
	}
	return chunks, nil
}

type identityImpl struct{ g *Graph }

func (i *identityImpl) Name() string { return i.g.name }
