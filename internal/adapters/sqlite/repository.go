// Package sqlite implements tile persistence on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tiles (
	user_id    INTEGER NOT NULL,
	group_id   INTEGER NOT NULL,
	path       TEXT    NOT NULL,
	owner_id   TEXT    NOT NULL,
	content    BLOB,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, group_id, path)
);
`

// tileRow is one row of the tiles table.
type tileRow struct {
	UserID      int    `db:"user_id"`
	GroupID     int    `db:"group_id"`
	Path        string `db:"path"`
	OwnerID     string `db:"owner_id"`
	Content     []byte `db:"content"`
	UpdatedAt   int64  `db:"updated_at"`
	HasChildren bool   `db:"has_children"`
}

// Repository implements ports.TileRepository on SQLite.
// Paths are stored as digit strings, so a descendant's path has its
// ancestor's path as a prefix within the same (user_id, group_id).
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create database directory"), "path", path)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrTransport, err), "failed to open database"), "path", path)
	}
	// A single connection serializes writers and keeps MoveTile transactions simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrTransport, err), "failed to migrate database"), "path", path)
	}

	return &Repository{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// FetchTile loads one tile and whether it has at least one direct child.
func (r *Repository) FetchTile(ctx context.Context, c domain.Coord) (domain.TileRecord, error) {
	var row tileRow
	err := r.db.GetContext(ctx, &row, `
		SELECT t.user_id, t.group_id, t.path, t.owner_id, t.content, t.updated_at,
			EXISTS (
				SELECT 1 FROM tiles ch
				WHERE ch.user_id = t.user_id AND ch.group_id = t.group_id
					AND length(ch.path) = length(t.path) + 1
					AND substr(ch.path, 1, length(t.path)) = t.path
			) AS has_children
		FROM tiles t
		WHERE t.user_id = ? AND t.group_id = ? AND t.path = ?`,
		c.UserID, c.GroupID, c.Digits())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TileRecord{}, zerr.With(zerr.Wrap(domain.ErrNotFound, "failed to fetch tile"), "key", domain.Encode(c))
		}
		return domain.TileRecord{}, transport(err, "failed to fetch tile", c)
	}

	return domain.TileRecord{
		Coord:       c,
		OwnerID:     row.OwnerID,
		Content:     row.Content,
		HasChildren: row.HasChildren,
	}, nil
}

// PutTile inserts or replaces the tile at rec.Coord.
func (r *Repository) PutTile(ctx context.Context, rec domain.TileRecord) error {
	c := rec.Coord
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tiles (user_id, group_id, path, owner_id, content, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.GroupID, c.Digits(), rec.OwnerID, rec.Content, r.now().UnixNano())
	if err != nil {
		return transport(err, "failed to put tile", c)
	}
	return nil
}

// MoveTile re-keys the subtree rooted at src so it is rooted at dst, in one transaction.
//
// The source must exist. The destination must not be the source or lie inside
// it, its slot and subtree must be empty, and its parent must exist unless it
// is a root.
func (r *Repository) MoveTile(ctx context.Context, src, dst domain.Coord) error {
	if dst.Within(src) {
		return moveErr(domain.ErrInvalidMove, "target lies inside the source", src, dst)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return transport(err, "failed to begin move", src)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := countSubtree(ctx, tx, src, true)
	if err != nil {
		return err
	}
	if exists == 0 {
		return moveErr(domain.ErrNotFound, "source tile does not exist", src, dst)
	}

	if parent, ok := dst.Parent(); ok {
		n, err := countSubtree(ctx, tx, parent, true)
		if err != nil {
			return err
		}
		if n == 0 {
			return moveErr(domain.ErrInvalidMove, "target parent does not exist", src, dst)
		}
	}

	occupied, err := countSubtree(ctx, tx, dst, false)
	if err != nil {
		return err
	}
	if occupied > 0 {
		return moveErr(domain.ErrConflict, "target slot is occupied", src, dst)
	}

	srcPath := src.Digits()
	_, err = tx.ExecContext(ctx, `
		UPDATE tiles
		SET user_id = ?, group_id = ?, path = ? || substr(path, ?), updated_at = ?
		WHERE user_id = ? AND group_id = ? AND substr(path, 1, ?) = ?`,
		dst.UserID, dst.GroupID, dst.Digits(), len(srcPath)+1, r.now().UnixNano(),
		src.UserID, src.GroupID, len(srcPath), srcPath)
	if err != nil {
		return transport(err, "failed to move subtree", src)
	}

	if err := tx.Commit(); err != nil {
		return transport(err, "failed to commit move", src)
	}
	return nil
}

// countSubtree counts the tile at c, or c and all of its descendants.
func countSubtree(ctx context.Context, tx *sqlx.Tx, c domain.Coord, exact bool) (int, error) {
	var n int
	var err error
	if exact {
		err = tx.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM tiles WHERE user_id = ? AND group_id = ? AND path = ?`,
			c.UserID, c.GroupID, c.Digits())
	} else {
		err = tx.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM tiles WHERE user_id = ? AND group_id = ? AND substr(path, 1, ?) = ?`,
			c.UserID, c.GroupID, len(c.Digits()), c.Digits())
	}
	if err != nil {
		return 0, transport(err, "failed to count tiles", c)
	}
	return n, nil
}

// Subtree returns every stored coordinate at or below root, sorted.
func (r *Repository) Subtree(ctx context.Context, root domain.Coord) ([]domain.Coord, error) {
	var rows []tileRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT user_id, group_id, path, owner_id, updated_at FROM tiles
		WHERE user_id = ? AND group_id = ? AND substr(path, 1, ?) = ?
		ORDER BY path`,
		root.UserID, root.GroupID, len(root.Digits()), root.Digits())
	if err != nil {
		return nil, transport(err, "failed to list subtree", root)
	}

	out := make([]domain.Coord, 0, len(rows))
	for _, row := range rows {
		c, err := row.coord()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	domain.SortCoords(out)
	return out, nil
}

func (row tileRow) coord() (domain.Coord, error) {
	key := strconv.Itoa(row.UserID) + "-" + strconv.Itoa(row.GroupID)
	if row.Path != "" {
		key += "-" + row.Path
	}
	return domain.Decode(key)
}

func transport(err error, msg string, c domain.Coord) error {
	return zerr.With(zerr.Wrap(errors.Join(domain.ErrTransport, err), msg), "key", domain.Encode(c))
}

func moveErr(sentinel error, reason string, src, dst domain.Coord) error {
	err := zerr.Wrap(sentinel, "failed to move tile")
	err = zerr.With(err, "source", domain.Encode(src))
	err = zerr.With(err, "target", domain.Encode(dst))
	return zerr.With(err, "reason", reason)
}
