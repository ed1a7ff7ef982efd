/*
 * dir.go, part of structset.
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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
	"github.com/rmera/structset/raw"
)

//MetaFile is the name of the file with the metadata of each stored collection.
const MetaFile = "meta.json"

//Meta describes a collection stored in a Dir.
type Meta struct {
	ID        string    `json:"id"`
	Length    int       `json:"length"`
	FrameSize int       `json:"frame_size"`
	Elements  []string  `json:"elements"`
	Energies  bool      `json:"energies"`
	Created   time.Time `json:"created"`
}

//Dir stores each collection in its own sub-directory of a root directory,
//as zstd-compressed raw tables. Writes are serialized among processes
//with a lock file in the root.
type Dir struct {
	root string
	lock *flock.Flock
	log  *zap.SugaredLogger
}

//NewDir returns a store rooted at root, which is created if needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("provenance: empty store directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("provenance: creating store: %w", err)
	}
	return &Dir{root: root, lock: flock.New(filepath.Join(root, ".lock"))}, nil
}

//SetLogger sets the logger used by the store.
func (D *Dir) SetLogger(l *zap.SugaredLogger) { D.log = l }

//Root returns the root directory of the store.
func (D *Dir) Root() string { return D.root }

type zstdFile struct {
	*zstd.Encoder
	f *os.File
}

func (z zstdFile) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}

//The decoder doesn't implement io.ReadCloser.
type zstdReader struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

func zstdCreator(dir string) raw.Creator {
	return func(name string) (io.WriteCloser, error) {
		f, err := os.Create(filepath.Join(dir, name+".zst"))
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			f.Close()
			return nil, err
		}
		return zstdFile{enc, f}, nil
	}
}

func zstdOpener(dir string) raw.Opener {
	return func(name string) (io.ReadCloser, error) {
		f, err := os.Open(filepath.Join(dir, name+".zst"))
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return zstdReader{dec, f}, nil
	}
}

//Persist writes C to a new sub-directory and returns its identity.
func (D *Dir) Persist(ctx context.Context, C *structset.Collection) (id string, err error) {
	ok, err := D.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("provenance: acquiring store lock: %w", err)
	}
	if !ok {
		return "", errors.New("provenance: store is locked")
	}
	defer func() {
		if uerr := D.lock.Unlock(); uerr != nil {
			logging.OrNop(D.log).Warnw("failed to release store lock", "error", uerr)
		}
	}()
	id = uuid.NewString()
	final := filepath.Join(D.root, id)
	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("provenance: %s already exists", final)
	}
	tmp, err := os.MkdirTemp(D.root, ".tmp-")
	if err != nil {
		return "", fmt.Errorf("provenance: %w", err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(tmp)
		}
	}()
	if err = raw.WriteFull(zstdCreator(tmp), C); err != nil {
		return "", err
	}
	meta := Meta{ID: id, Length: C.Len(), FrameSize: C.FrameSize(), Elements: C.Elements(), Energies: C.HasEnergies(), Created: time.Now().UTC()}
	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return "", err
	}
	if err = os.WriteFile(filepath.Join(tmp, MetaFile), data, 0o644); err != nil {
		return "", fmt.Errorf("provenance: writing metadata: %w", err)
	}
	if err = os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("provenance: %w", err)
	}
	logging.OrNop(D.log).Debugw("collection stored", "id", id, "dir", final, "structures", C.Len())
	return id, nil
}

//Load reads the collection stored with the identity id.
func (D *Dir) Load(ctx context.Context, id string) (*structset.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}
	dir := filepath.Join(D.root, id)
	if _, err := os.Stat(dir); err != nil {
		return nil, notFound(id)
	}
	C, err := raw.Read(zstdOpener(dir))
	if err != nil {
		return nil, fmt.Errorf("provenance: loading %s: %w", id, err)
	}
	C.Freeze(id)
	return C, nil
}

//Meta returns the metadata of the collection stored with the identity id.
func (D *Dir) Meta(id string) (Meta, error) {
	var m Meta
	if _, err := uuid.Parse(id); err != nil {
		return m, notFound(id)
	}
	data, err := os.ReadFile(filepath.Join(D.root, id, MetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return m, notFound(id)
	} else if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

//List returns the stored identities, oldest first.
func (D *Dir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(D.root)
	if err != nil {
		return nil, err
	}
	metas := make([]Meta, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		m, err := D.Meta(e.Name())
		if err != nil {
			logging.OrNop(D.log).Warnw("skipping unreadable collection", "id", e.Name(), "error", err)
			continue
		}
		metas = append(metas, m)
	}
	sort.SliceStable(metas, func(i, j int) bool { return metas[i].Created.Before(metas[j].Created) })
	ret := make([]string, len(metas))
	for i, m := range metas {
		ret[i] = m.ID
	}
	return ret, nil
}

//Close does nothing, the lock is only held while persisting.
func (D *Dir) Close() error { return nil }
