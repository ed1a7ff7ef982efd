/*
 * bundle.go, part of structset.
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

package raw

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sort"
)

//Bundle holds the raw tables of a collection in memory, by file name.
type Bundle map[string][]byte

type bundleFile struct {
	bytes.Buffer
	name string
	b    Bundle
}

func (f *bundleFile) Close() error {
	f.b[f.name] = f.Bytes()
	return nil
}

//Creator returns a Creator that stores each table in the bundle when it is closed.
func (B Bundle) Creator() Creator {
	return func(name string) (io.WriteCloser, error) {
		return &bundleFile{name: name, b: B}, nil
	}
}

//Opener returns an Opener for the tables in the bundle.
func (B Bundle) Opener() Opener {
	return func(name string) (io.ReadCloser, error) {
		data, ok := B[name]
		if !ok {
			return nil, fmt.Errorf("raw: bundle has no %s: %w", name, fs.ErrNotExist)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

//Names returns the names of the tables in the bundle, sorted.
func (B Bundle) Names() []string {
	ret := make([]string, 0, len(B))
	for k := range B {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
