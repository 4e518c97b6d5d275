// Package sqlrepo implements the Bookmarks, BonsaiGitMapping,
// BonsaiTagMapping, and Symrefs capabilities against a MySQL schema,
// grounded on pkg/serve/database's connection setup (NewDB via
// mysql.NewConnector + pool tuning) and branches.go's
// QueryRowContext/transaction style and sentinel-error mapping.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/zetaforge/gitwire/pkg/gitwire/objid"
	"github.com/zetaforge/gitwire/pkg/gitwire/repo"
	"github.com/zetaforge/gitwire/pkg/gitwire/types"
)

// Store wraps a *sql.DB scoped to one repository id (rid), exposing the
// four mapping-table capabilities the pack-generation pipeline consumes.
type Store struct {
	db  *sql.DB
	rid int64
}

// Open connects with the same pool tuning the teacher's NewDB uses
// (NewDB in pkg/serve/database/database.go): 25 idle / 50 open
// connections, 5-minute connection lifetime.
func Open(cfg *mysql.Config, rid int64) (*Store, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: new connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxIdleConns(25)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db, rid: rid}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func isDupEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// Bookmarks returns the repo.Bookmarks capability backed by this store.
func (s *Store) Bookmarks() repo.Bookmarks { return &bookmarks{s} }

// BonsaiGitMapping returns the repo.BonsaiGitMapping capability backed
// by this store.
func (s *Store) BonsaiGitMapping() repo.BonsaiGitMapping { return &gitMapping{s} }

// BonsaiTagMapping returns the repo.BonsaiTagMapping capability backed
// by this store.
func (s *Store) BonsaiTagMapping() repo.BonsaiTagMapping { return &tagMapping{s} }

// Symrefs returns the repo.Symrefs capability backed by this store.
func (s *Store) Symrefs() repo.Symrefs { return &symrefs{s} }

type bookmarks struct{ s *Store }

func (b *bookmarks) List(ctx context.Context) ([]repo.BookmarkEntry, error) {
	rows, err := b.s.db.QueryContext(ctx,
		"select category, name, cs_id from bookmarks where rid = ? and publishing = 1", b.s.rid)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: listing bookmarks: %w", err)
	}
	defer rows.Close()

	var out []repo.BookmarkEntry
	for rows.Next() {
		var category string
		var name string
		var csHex string
		if err := rows.Scan(&category, &name, &csHex); err != nil {
			return nil, fmt.Errorf("sqlrepo: scanning bookmark row: %w", err)
		}
		cs, err := objid.ParseChangesetId(csHex)
		if err != nil {
			return nil, fmt.Errorf("sqlrepo: parsing bookmark %q changeset id: %w", name, err)
		}
		cat := types.CategoryBranch
		if category == "tags" {
			cat = types.CategoryTag
		}
		out = append(out, repo.BookmarkEntry{Key: types.BookmarkKey{Category: cat, Name: name}, Cs: cs})
	}
	return out, rows.Err()
}

type gitMapping struct{ s *Store }

func (g *gitMapping) GetGitShas(ctx context.Context, cs []objid.ChangesetId) (map[objid.ChangesetId]objid.GitObjectId, error) {
	out := make(map[objid.ChangesetId]objid.GitObjectId, len(cs))
	if len(cs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(cs))
	args := make([]any, 0, len(cs)+1)
	args = append(args, g.s.rid)
	for i, c := range cs {
		placeholders[i] = "?"
		args = append(args, c.String())
	}
	query := fmt.Sprintf("select cs_id, git_sha1 from bonsai_git_mapping where rid = ? and cs_id in (%s)", strings.Join(placeholders, ","))
	rows, err := g.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: resolving bonsai-git mapping: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var csHex, shaHex string
		if err := rows.Scan(&csHex, &shaHex); err != nil {
			return nil, fmt.Errorf("sqlrepo: scanning bonsai-git mapping row: %w", err)
		}
		cs, err := objid.ParseChangesetId(csHex)
		if err != nil {
			return nil, err
		}
		sha, err := objid.ParseGitObjectId(shaHex)
		if err != nil {
			return nil, err
		}
		out[cs] = sha
	}
	return out, rows.Err()
}

func (g *gitMapping) GetBonsais(ctx context.Context, shas []objid.GitObjectId) (map[objid.GitObjectId]objid.ChangesetId, error) {
	out := make(map[objid.GitObjectId]objid.ChangesetId, len(shas))
	if len(shas) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(shas))
	args := make([]any, 0, len(shas)+1)
	args = append(args, g.s.rid)
	for i, sha := range shas {
		placeholders[i] = "?"
		args = append(args, sha.String())
	}
	query := fmt.Sprintf("select git_sha1, cs_id from bonsai_git_mapping where rid = ? and git_sha1 in (%s)", strings.Join(placeholders, ","))
	rows, err := g.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: resolving bonsai-git mapping by sha: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var shaHex, csHex string
		if err := rows.Scan(&shaHex, &csHex); err != nil {
			return nil, fmt.Errorf("sqlrepo: scanning bonsai-git mapping row: %w", err)
		}
		sha, err := objid.ParseGitObjectId(shaHex)
		if err != nil {
			return nil, err
		}
		cs, err := objid.ParseChangesetId(csHex)
		if err != nil {
			return nil, err
		}
		out[sha] = cs
	}
	return out, rows.Err()
}

type tagMapping struct{ s *Store }

func (t *tagMapping) GetAllEntries(ctx context.Context) ([]repo.TagEntry, error) {
	rows, err := t.s.db.QueryContext(ctx, "select tag_name, tag_hash, cs_id from bonsai_tag_mapping where rid = ?", t.s.rid)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: listing bonsai-tag mapping: %w", err)
	}
	defer rows.Close()
	return scanTagEntries(rows)
}

func (t *tagMapping) GetEntriesByTagHashes(ctx context.Context, hashes []objid.GitObjectId) ([]repo.TagEntry, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(hashes))
	args := make([]any, 0, len(hashes)+1)
	args = append(args, t.s.rid)
	for i, h := range hashes {
		placeholders[i] = "?"
		args = append(args, h.String())
	}
	query := fmt.Sprintf("select tag_name, tag_hash, cs_id from bonsai_tag_mapping where rid = ? and tag_hash in (%s)", strings.Join(placeholders, ","))
	rows, err := t.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: resolving bonsai-tag mapping by hash: %w", err)
	}
	defer rows.Close()
	return scanTagEntries(rows)
}

func scanTagEntries(rows *sql.Rows) ([]repo.TagEntry, error) {
	var out []repo.TagEntry
	for rows.Next() {
		var name, hashHex, csHex string
		if err := rows.Scan(&name, &hashHex, &csHex); err != nil {
			return nil, fmt.Errorf("sqlrepo: scanning bonsai-tag mapping row: %w", err)
		}
		hash, err := objid.ParseGitObjectId(hashHex)
		if err != nil {
			return nil, err
		}
		cs, err := objid.ParseChangesetId(csHex)
		if err != nil {
			return nil, err
		}
		out = append(out, repo.TagEntry{TagName: name, TagHash: hash, Cs: cs})
	}
	return out, rows.Err()
}

type symrefs struct{ s *Store }

func (sr *symrefs) GetBySymrefName(ctx context.Context, name string) (repo.SymrefEntry, error) {
	row := sr.s.db.QueryRowContext(ctx, "select symref_name, ref_name_with_type from symrefs where rid = ? and symref_name = ?", sr.s.rid, name)
	var e repo.SymrefEntry
	if err := row.Scan(&e.SymrefName, &e.RefNameWithType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.SymrefEntry{}, &repo.RevisionNotFoundError{Revision: name}
		}
		return repo.SymrefEntry{}, fmt.Errorf("sqlrepo: resolving symref %q: %w", name, err)
	}
	return e, nil
}

func (sr *symrefs) ListAll(ctx context.Context) ([]repo.SymrefEntry, error) {
	rows, err := sr.s.db.QueryContext(ctx, "select symref_name, ref_name_with_type from symrefs where rid = ?", sr.s.rid)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: listing symrefs: %w", err)
	}
	defer rows.Close()
	var out []repo.SymrefEntry
	for rows.Next() {
		var e repo.SymrefEntry
		if err := rows.Scan(&e.SymrefName, &e.RefNameWithType); err != nil {
			return nil, fmt.Errorf("sqlrepo: scanning symref row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
