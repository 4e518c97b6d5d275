// Package types declares the closed enums and request/response value
// types the pack-generation handlers consume and produce. No behavior
// lives here beyond construction helpers and String(); each enum is a
// discriminated struct or int constant set, matching the teacher's own
// ReferenceType/ObjectType style rather than a class hierarchy.
package types

import (
	"fmt"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
)

// BookmarkCategory distinguishes branches from tags in a BookmarkKey.
type BookmarkCategory int8

const (
	CategoryBranch BookmarkCategory = iota
	CategoryTag
)

func (c BookmarkCategory) String() string {
	if c == CategoryTag {
		return "tags"
	}
	return "heads"
}

// BookmarkKey is a structured ref name with a category.
type BookmarkKey struct {
	Category BookmarkCategory
	Name     string
}

// RefString renders "heads/<name>" or "tags/<name>", the form used
// throughout the ref-resolution pipeline before the "refs/" prefix is
// added.
func (k BookmarkKey) RefString() string {
	return fmt.Sprintf("%s/%s", k.Category, k.Name)
}

// RefTarget is either Plain(oid) or WithMetadata(oid, metadata). The two
// variants are discriminated by HasMetadata, not by subtype.
type RefTarget struct {
	Oid      objid.GitObjectId
	Metadata string
	hasMeta  bool
}

// Plain constructs a RefTarget with no metadata string.
func Plain(oid objid.GitObjectId) RefTarget { return RefTarget{Oid: oid} }

// WithMetadata constructs a RefTarget carrying a metadata string, used
// for "peeled:<hex>" and "symref-target:<name>" wire values.
func WithMetadata(oid objid.GitObjectId, metadata string) RefTarget {
	return RefTarget{Oid: oid, Metadata: metadata, hasMeta: true}
}

func (t RefTarget) HasMetadata() bool { return t.hasMeta }

// RefMap is the Ref Resolver's output: ref name to target, unordered.
type RefMap map[string]RefTarget

// DeltaOrigin names where a pre-computed delta's base object comes from;
// opaque to this module beyond being preserved in the cache key.
type DeltaOrigin string

// GitDeltaManifestFull is the "full" object descriptor of a manifest
// entry: the object's own id and size.
type GitDeltaManifestFull struct {
	Oid  objid.GitObjectId
	Size int64
}

// AsRich converts a full descriptor plus kind into a RichGitObjectId,
// the form the Base Item Provider needs to read raw bytes.
func (f GitDeltaManifestFull) AsRich(kind objid.ObjectKind) objid.RichGitObjectId {
	return objid.RichGitObjectId{Oid: f.Oid, Kind: kind, Size: f.Size}
}

// GitDeltaManifestDelta describes one pre-computed delta against a base
// object.
type GitDeltaManifestDelta struct {
	BaseOid                      objid.GitObjectId
	InstructionsChunkCount       int
	InstructionsCompressedSize   int64
	InstructionsUncompressedSize int64
	Origin                       DeltaOrigin
}

// GitDeltaManifestEntry is a per-path record: a full descriptor plus
// zero or more candidate deltas.
type GitDeltaManifestEntry struct {
	Path   string
	Kind   objid.ObjectKind // tree or blob
	Full   GitDeltaManifestFull
	Deltas []GitDeltaManifestDelta
}

// PackfileItem is the opaque value handed to a downstream encoder. It is
// constructed through one of the three factory functions below, never
// built field-by-field by callers, mirroring the original's closed
// constructor set.
type PackfileItem struct {
	kind              packfileItemKind
	rawBytes          []byte
	encodedBase       []byte
	targetOid         objid.GitObjectId
	baseOid           objid.GitObjectId
	uncompressedSize  int64
	instructionBytes  []byte
	forOid            objid.GitObjectId
}

type packfileItemKind int8

const (
	itemBase packfileItemKind = iota
	itemEncodedBase
	itemDelta
)

// NewBase builds a self-contained base item from raw object bytes.
func NewBase(oid objid.GitObjectId, rawBytes []byte) PackfileItem {
	return PackfileItem{kind: itemBase, forOid: oid, rawBytes: rawBytes}
}

// NewEncodedBase builds a base item from an already pack-encoded byte
// blob fetched from the blob store.
func NewEncodedBase(oid objid.GitObjectId, prebuilt []byte) PackfileItem {
	return PackfileItem{kind: itemEncodedBase, forOid: oid, encodedBase: prebuilt}
}

// NewDelta builds a delta item against an in-pack base.
func NewDelta(targetOid, baseOid objid.GitObjectId, uncompressedInstrSize int64, instructionBytes []byte) PackfileItem {
	return PackfileItem{
		kind:             itemDelta,
		forOid:           targetOid,
		targetOid:        targetOid,
		baseOid:          baseOid,
		uncompressedSize: uncompressedInstrSize,
		instructionBytes: instructionBytes,
	}
}

func (p PackfileItem) IsDelta() bool { return p.kind == itemDelta }

// Oid returns the object id this item represents (the target id for a
// delta, the object's own id for a base).
func (p PackfileItem) Oid() objid.GitObjectId { return p.forOid }

// BaseOid returns the referenced base object id; valid only when
// IsDelta() is true.
func (p PackfileItem) BaseOid() objid.GitObjectId { return p.baseOid }

// RawBytes returns the raw object bytes for a base item built via
// NewBase; empty otherwise.
func (p PackfileItem) RawBytes() []byte { return p.rawBytes }

// EncodedBytes returns the pre-encoded bytes for a base item built via
// NewEncodedBase; empty otherwise.
func (p PackfileItem) EncodedBytes() []byte { return p.encodedBase }

// InstructionBytes returns the delta instruction bytes for a delta item;
// empty otherwise.
func (p PackfileItem) InstructionBytes() []byte { return p.instructionBytes }

// UncompressedInstructionSize is the declared uncompressed size of the
// delta instructions; meaningful only for delta items.
func (p PackfileItem) UncompressedInstructionSize() int64 { return p.uncompressedSize }

// RequestedRefs configures which bookmarks the Ref Resolver keeps.
type RequestedRefs struct {
	variant          requestedRefsVariant
	included         map[string]struct{}
	includedPrefixes []string
	excluded         map[string]struct{}
	includedWithVal  map[string]objid.ChangesetId
}

type requestedRefsVariant int8

const (
	refsIncluded requestedRefsVariant = iota
	refsIncludedWithPrefix
	refsExcluded
	refsIncludedWithValue
)

func RefsIncluded(names ...string) RequestedRefs {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return RequestedRefs{variant: refsIncluded, included: set}
}

func RefsIncludedWithPrefix(prefixes ...string) RequestedRefs {
	return RequestedRefs{variant: refsIncludedWithPrefix, includedPrefixes: prefixes}
}

func RefsExcluded(names ...string) RequestedRefs {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return RequestedRefs{variant: refsExcluded, excluded: set}
}

func RefsIncludedWithValue(m map[string]objid.ChangesetId) RequestedRefs {
	return RequestedRefs{variant: refsIncludedWithValue, includedWithVal: m}
}

// Keep reports whether bookmark name should survive filtering, given its
// "refs/"-prefixed form for the prefix variant.
func (r RequestedRefs) Keep(name, refQualifiedName string) bool {
	switch r.variant {
	case refsIncluded:
		_, ok := r.included[name]
		return ok
	case refsIncludedWithPrefix:
		for _, p := range r.includedPrefixes {
			if len(refQualifiedName) >= len(p) && refQualifiedName[:len(p)] == p {
				return true
			}
		}
		return false
	case refsExcluded:
		_, ok := r.excluded[name]
		return !ok
	case refsIncludedWithValue:
		_, ok := r.includedWithVal[name]
		return ok
	default:
		return false
	}
}

// IsIncludedWithValue reports whether this is the synthetic-ref-carrying
// variant, and returns its map.
func (r RequestedRefs) IsIncludedWithValue() (map[string]objid.ChangesetId, bool) {
	if r.variant == refsIncludedWithValue {
		return r.includedWithVal, true
	}
	return nil, false
}

// OverrideTarget returns the caller-supplied changeset id for name under
// the IncludedWithValue variant, if any.
func (r RequestedRefs) OverrideTarget(name string) (objid.ChangesetId, bool) {
	if r.variant != refsIncludedWithValue {
		return objid.ChangesetId{}, false
	}
	cs, ok := r.includedWithVal[name]
	return cs, ok
}

// SymrefFormat selects how a resolved symref is rendered into a
// RefTarget.
type SymrefFormat int8

const (
	NameOnly SymrefFormat = iota
	NameWithTarget
)

// RequestedSymrefs configures which symrefs the Ref Resolver merges in.
type RequestedSymrefs struct {
	variant requestedSymrefsVariant
	format  SymrefFormat
}

type requestedSymrefsVariant int8

const (
	symrefsExcludeAll requestedSymrefsVariant = iota
	symrefsIncludeHead
	symrefsIncludeAll
)

func SymrefsExcludeAll() RequestedSymrefs { return RequestedSymrefs{variant: symrefsExcludeAll} }
func SymrefsIncludeHead(f SymrefFormat) RequestedSymrefs {
	return RequestedSymrefs{variant: symrefsIncludeHead, format: f}
}
func SymrefsIncludeAll(f SymrefFormat) RequestedSymrefs {
	return RequestedSymrefs{variant: symrefsIncludeAll, format: f}
}

func (r RequestedSymrefs) IsExcludeAll() bool  { return r.variant == symrefsExcludeAll }
func (r RequestedSymrefs) IsIncludeHead() bool { return r.variant == symrefsIncludeHead }
func (r RequestedSymrefs) IsIncludeAll() bool  { return r.variant == symrefsIncludeAll }
func (r RequestedSymrefs) Format() SymrefFormat { return r.format }

// TagInclusion selects how an annotated tag's bookmark projects into a
// RefTarget.
type TagInclusion int8

const (
	TagAsIs TagInclusion = iota
	TagPeeled
	TagWithTarget
)

// DeltaInclusion configures whether and under what threshold a
// pre-computed delta may be used instead of a base item.
type DeltaInclusion struct {
	include   bool
	threshold float32
}

func DeltaExclude() DeltaInclusion { return DeltaInclusion{} }

// DeltaInclude enables delta selection with the given size-ratio
// threshold in (0, 1].
func DeltaInclude(threshold float32) DeltaInclusion {
	return DeltaInclusion{include: true, threshold: threshold}
}

func (d DeltaInclusion) Enabled() bool       { return d.include }
func (d DeltaInclusion) Threshold() float32  { return d.threshold }

// PackfileItemInclusion selects the Base Item Provider's read/write
// policy.
type PackfileItemInclusion int8

const (
	Generate PackfileItemInclusion = iota
	FetchOnly
	FetchAndStore
)

// LsRefsRequest parameterizes the ls-refs handler.
type LsRefsRequest struct {
	RequestedRefs    RequestedRefs
	RequestedSymrefs RequestedSymrefs
	TagInclusion     TagInclusion
}

// Windows controls the bounded-concurrency fan-out width of the
// tree/blob sub-stream (§5, §9): CommitWindow is the number of commits
// expanded at once, EntryWindow the number of manifest entries per
// commit. A zero field falls back to the delta package's own default
// for that window. The commit sub-stream's width is not set here.
type Windows struct {
	CommitWindow int
	EntryWindow  int
}

// GeneratePackItemStreamRequest parameterizes the clone handler.
type GeneratePackItemStreamRequest struct {
	RequestedRefs         RequestedRefs
	RequestedSymrefs      RequestedSymrefs
	TagInclusion          TagInclusion
	HaveHeads             []objid.ChangesetId
	DeltaInclusion        DeltaInclusion
	PackfileItemInclusion PackfileItemInclusion
	Windows               Windows
}

// FetchRequest parameterizes the incremental-fetch handler: bases/heads
// arrive as Git object ids, translated to bonsai internally.
type FetchRequest struct {
	Bases   []objid.GitObjectId
	Heads   []objid.GitObjectId
	Windows Windows
}

// PackItemStreamResult is the clone/fetch handler's output.
type PackItemStreamResult struct {
	Items       []PackfileItem
	ObjectCount int
	RefMap      RefMap // nil for fetch
}
