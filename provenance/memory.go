/*
 * memory.go, part of structset.
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
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
)

//Memory keeps deep copies of the stored collections in memory.
//It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*structset.Collection
	order map[string]int
	log   *zap.SugaredLogger
}

//NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]*structset.Collection), order: make(map[string]int)}
}

//SetLogger sets the logger used by the store.
func (M *Memory) SetLogger(l *zap.SugaredLogger) { M.log = l }

//Persist stores a copy of C and returns its new identity.
func (M *Memory) Persist(ctx context.Context, C *structset.Collection) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	c := C.Clone()
	c.Freeze(id)
	M.mu.Lock()
	M.items[id] = c
	M.order[id] = len(M.order)
	M.mu.Unlock()
	logging.OrNop(M.log).Debugw("collection stored", "id", id, "structures", c.Len())
	return id, nil
}

//Load returns a frozen copy of the collection stored with the identity id.
func (M *Memory) Load(ctx context.Context, id string) (*structset.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	M.mu.RLock()
	c, ok := M.items[id]
	M.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	ret := c.Clone()
	ret.Freeze(id)
	return ret, nil
}

//List returns the stored identities, oldest first.
func (M *Memory) List(ctx context.Context) ([]string, error) {
	M.mu.RLock()
	defer M.mu.RUnlock()
	return sortedIDs(M.order), nil
}

//Close does nothing.
func (M *Memory) Close() error { return nil }
