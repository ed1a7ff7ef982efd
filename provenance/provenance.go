/*
 * provenance.go, part of structset.
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

//Package provenance implements stores for collections. Storing a collection
//freezes it, and collections loaded from a store are frozen too, with the
//identity the store gave them.
package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/raw"
)

//ErrNotFound is returned when loading an identity the store doesn't have.
var ErrNotFound = errors.New("provenance: collection not found")

//Store is implemented by all the stores in this package.
type Store interface {
	structset.Persister
	structset.Loader
	List(ctx context.Context) ([]string, error)
	SetLogger(l *zap.SugaredLogger)
	Close() error
}

//Open returns the store for the given backend ("memory", "dir" or "sqlite").
//path is the root directory for "dir" and the database file for "sqlite".
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "memory", "mem":
		return NewMemory(), nil
	case "dir", "directory", "":
		return NewDir(path)
	case "sqlite", "sqlite3":
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("provenance: unknown backend %q", backend)
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

//encodeBundle serializes the tables of a collection as zstd-compressed JSON.
func encodeBundle(C *structset.Collection) ([]byte, error) {
	B := make(raw.Bundle)
	if err := raw.WriteFull(B.Creator(), C); err != nil {
		return nil, err
	}
	tables := make(map[string]string, len(B))
	for k, v := range B {
		tables[k] = string(v)
	}
	data, err := json.Marshal(tables)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decodeBundle(payload []byte) (*structset.Collection, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	data, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("provenance: decompressing payload: %w", err)
	}
	var tables map[string]string
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("provenance: decoding payload: %w", err)
	}
	B := make(raw.Bundle, len(tables))
	for k, v := range tables {
		B[k] = []byte(v)
	}
	return raw.Read(B.Opener())
}

func sortedIDs(m map[string]int) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return m[ret[i]] < m[ret[j]] })
	return ret
}
