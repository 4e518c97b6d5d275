package repo

import "fmt"

// RevisionNotFoundError reports a changeset or object id that has no
// corresponding entry in a mapping table. Mirrors the sentinel-error +
// predicate pattern the teacher uses for ErrRevisionNotFound.
type RevisionNotFoundError struct {
	Revision string
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("repo: revision not found: %s", e.Revision)
}

func IsRevisionNotFound(err error) bool {
	_, ok := err.(*RevisionNotFoundError)
	return ok
}

// MappingMissingError reports an invariant violation: a changeset that
// was expected to have a bonsai-git (or bonsai-tag) mapping entry does
// not.
type MappingMissingError struct {
	Kind       string // "bonsai-git" or "bonsai-tag"
	ChangesetId string
}

func (e *MappingMissingError) Error() string {
	return fmt.Sprintf("repo: %s mapping missing for changeset %s", e.Kind, e.ChangesetId)
}

func IsMappingMissing(err error) bool {
	_, ok := err.(*MappingMissingError)
	return ok
}

// MalformedRefNameError reports a client-supplied synthetic ref name
// (via IncludedWithValue) that is not well-formed.
type MalformedRefNameError struct {
	Name string
}

func (e *MalformedRefNameError) Error() string {
	return fmt.Sprintf("repo: malformed ref name %q", e.Name)
}

func IsMalformedRefName(err error) bool {
	_, ok := err.(*MalformedRefNameError)
	return ok
}

// SymrefTargetMissingError reports a symref whose target ref is absent
// from the resolved ref map.
type SymrefTargetMissingError struct {
	Symref    string
	TargetRef string
}

func (e *SymrefTargetMissingError) Error() string {
	return fmt.Sprintf("repo: symref %q target %q not present in resolved ref map", e.Symref, e.TargetRef)
}

func IsSymrefTargetMissing(err error) bool {
	_, ok := err.(*SymrefTargetMissingError)
	return ok
}

// EncodingError reports a packfile item that could not be constructed
// from raw bytes read for the given object id.
type EncodingError struct {
	Oid string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("repo: failed encoding object %s: %v", e.Oid, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func IsEncodingError(err error) bool {
	_, ok := err.(*EncodingError)
	return ok
}
