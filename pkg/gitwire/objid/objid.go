// Package objid defines the identifier types that flow through the
// pack-generation pipeline: the server's native 32-byte changeset id and
// the 20-byte Git object id, plus the richer variants needed to read an
// object's bytes out of a blob store with separate blob/non-blob
// keyspaces.
package objid

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ChangesetId is the opaque 32-byte identifier of a bonsai changeset.
type ChangesetId [32]byte

// NewChangesetId hashes data with BLAKE3 and returns the resulting id.
// Used to build cmd/gitwire-serve's in-memory demo fixture; a production mapping table never
// needs to compute this itself, it only stores/looks up ids.
func NewChangesetId(data []byte) ChangesetId {
	sum := blake3.Sum256(data)
	return ChangesetId(sum)
}

func (id ChangesetId) String() string {
	return hex.EncodeToString(id[:])
}

func (id ChangesetId) IsZero() bool {
	return id == ChangesetId{}
}

// ParseChangesetId decodes a 64-character lowercase hex string.
func ParseChangesetId(s string) (ChangesetId, error) {
	var id ChangesetId
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("objid: invalid changeset id length %d", len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("objid: invalid changeset id %q: %w", s, err)
	}
	return id, nil
}

// GitObjectId is the 20-byte SHA-1 identifier Git's wire protocol uses
// for every object. The algorithm is fixed by the protocol, not chosen
// by this module (see DESIGN.md).
type GitObjectId [20]byte

// HashGitObject computes the Git object id for a loose object of the
// given kind: sha1("<kind> <len>\0" + content).
func HashGitObject(kind ObjectKind, content []byte) GitObjectId {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind.GitName(), len(content))
	h.Write(content)
	var id GitObjectId
	copy(id[:], h.Sum(nil))
	return id
}

func (id GitObjectId) String() string {
	return hex.EncodeToString(id[:])
}

func (id GitObjectId) IsZero() bool {
	return id == GitObjectId{}
}

// ParseGitObjectId decodes a 40-character lowercase hex string.
func ParseGitObjectId(s string) (GitObjectId, error) {
	var id GitObjectId
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("objid: invalid git object id length %d", len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("objid: invalid git object id %q: %w", s, err)
	}
	return id, nil
}

// ObjectKind is the closed set of Git object kinds a RichGitObjectId can
// name. Modeled as a small int enum, matching the teacher's
// object.ObjectType rather than a class hierarchy.
type ObjectKind int8

const (
	KindInvalid ObjectKind = 0
	KindCommit  ObjectKind = 1
	KindTree    ObjectKind = 2
	KindBlob    ObjectKind = 3
	KindTag     ObjectKind = 4
)

func (k ObjectKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	default:
		return "invalid"
	}
}

// GitName is the string Git's loose-object header uses, identical to
// String() today but kept distinct since the wire format, not Go's
// stringer convention, governs this value.
func (k ObjectKind) GitName() string { return k.String() }

// IsBlob reports whether this kind lives in the blob-store's file-content
// keyspace rather than its raw-git-object keyspace.
func (k ObjectKind) IsBlob() bool { return k == KindBlob }

// RichGitObjectId augments a GitObjectId with its kind and uncompressed
// size. Required to read blobs, which the blob store keeps in a keyspace
// separate from commits/trees/tags.
type RichGitObjectId struct {
	Oid  GitObjectId
	Kind ObjectKind
	Size int64
}

func (r RichGitObjectId) String() string {
	return fmt.Sprintf("%s(%s,%d)", r.Oid, r.Kind, r.Size)
}

// ObjectIdentifier is the two-variant tagged value §4.2 describes:
// either a RichGitObjectId usable for any object (including blobs), or a
// bare GitObjectId usable only for non-blob objects. Implemented as a
// discriminated struct, not an interface hierarchy, so callers can
// branch on IsAllObjects without a type assertion.
type ObjectIdentifier struct {
	rich    RichGitObjectId
	oid     GitObjectId
	allKind bool // true: AllObjects(rich); false: NonBlobObjects(oid)
}

// AllObjects constructs the variant usable for any object, including
// blobs, since it carries the kind and size the blob store needs to
// route the read to the right keyspace.
func AllObjects(rich RichGitObjectId) ObjectIdentifier {
	return ObjectIdentifier{rich: rich, allKind: true}
}

// NonBlobObjects constructs the variant usable only for non-blob
// objects: a bare GitObjectId, with no kind/size metadata.
func NonBlobObjects(oid GitObjectId) ObjectIdentifier {
	return ObjectIdentifier{oid: oid, allKind: false}
}

// IsAllObjects reports which variant this value holds.
func (o ObjectIdentifier) IsAllObjects() bool { return o.allKind }

// Rich returns the RichGitObjectId payload; valid only when
// IsAllObjects() is true.
func (o ObjectIdentifier) Rich() RichGitObjectId { return o.rich }

// Oid returns the GitObjectId regardless of variant.
func (o ObjectIdentifier) Oid() GitObjectId {
	if o.allKind {
		return o.rich.Oid
	}
	return o.oid
}
