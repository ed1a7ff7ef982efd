/*
 * sqlite.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package provenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

//fixed width, so that created_at sorts as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

//SQLite stores collections as rows of a SQLite database, with the raw
//tables as a zstd-compressed payload.
type SQLite struct {
	db   *sql.DB
	path string
	log  *zap.SugaredLogger
}

//OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "structset.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("provenance: create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("provenance: open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		length INTEGER NOT NULL,
		frame_size INTEGER NOT NULL,
		elements TEXT NOT NULL,
		created_at TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("provenance: create collections table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

//SetLogger sets the logger used by the store.
func (S *SQLite) SetLogger(l *zap.SugaredLogger) { S.log = l }

//Persist inserts C in the database and returns its identity.
func (S *SQLite) Persist(ctx context.Context, C *structset.Collection) (string, error) {
	payload, err := encodeBundle(C)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	//plain INSERT: an existing id is never overwritten.
	_, err = S.db.ExecContext(ctx, `INSERT INTO collections(id, length, frame_size, elements, created_at, payload) VALUES(?,?,?,?,?,?)`,
		id, C.Len(), C.FrameSize(), strings.Join(C.Elements(), " "), time.Now().UTC().Format(createdLayout), payload)
	if err != nil {
		return "", fmt.Errorf("provenance: insert %s: %w", id, err)
	}
	logging.OrNop(S.log).Debugw("collection stored", "id", id, "db", S.path, "structures", C.Len(), "payload_bytes", len(payload))
	return id, nil
}

//Load returns the collection stored with the identity id.
func (S *SQLite) Load(ctx context.Context, id string) (*structset.Collection, error) {
	var payload []byte
	err := S.db.QueryRowContext(ctx, `SELECT payload FROM collections WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	} else if err != nil {
		return nil, fmt.Errorf("provenance: select %s: %w", id, err)
	}
	C, err := decodeBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("provenance: loading %s: %w", id, err)
	}
	C.Freeze(id)
	return C, nil
}

//List returns the stored identities, oldest first.
func (S *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := S.db.QueryContext(ctx, `SELECT id FROM collections ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("provenance: select ids: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var ret []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("provenance: scan: %w", err)
		}
		ret = append(ret, id)
	}
	return ret, rows.Err()
}

//Close closes the database.
func (S *SQLite) Close() error { return S.db.Close() }
