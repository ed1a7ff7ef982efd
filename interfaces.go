/*
 * interfaces.go, part of structset.
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

package structset

import (
	"context"
	"errors"
	"fmt"
)

//Persister is the interface for a provenance store. Persist stores
//a snapshot of the collection and returns the identity assigned to it.
//The collection is frozen by its Store method once Persist succeeds, so
//implementations must not keep references to the collection's slices
//beyond what the getters return (they return copies anyway).
type Persister interface {
	Persist(ctx context.Context, c *Collection) (string, error)
}

//Loader is implemented by stores that can return a collection
//previously persisted. Loaded collections are frozen.
type Loader interface {
	Load(ctx context.Context, id string) (*Collection, error)
}

//Errors

//ErrorDecorator is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
//error, without changing it's type or wrapping it around something else.
type ErrorDecorator interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

//Error kinds. Use errors.Is to check an error returned by
//the package against them.
var (
	//ErrValidation signals malformed geometry, wrong-length sequences or an empty batch.
	ErrValidation = errors.New("validation error")
	//ErrArithmetic signals an atom count not divisible by the frame size.
	ErrArithmetic = errors.New("arithmetic invariant violated")
	//ErrImmutable signals an attempt to mutate a frozen collection.
	ErrImmutable = errors.New("collection is frozen")
	//ErrIndex signals an out-of-range structure index.
	ErrIndex = errors.New("index out of range")
	//ErrFormat signals a malformed file.
	ErrFormat = errors.New("malformed file")
	//ErrIncompleteOutput signals that an expected file was not produced.
	ErrIncompleteOutput = errors.New("incomplete output")
)

//Error is the general error type of the package.
type Error struct {
	message  string
	kind     error
	deco     []string
	critical bool
}

//NewError returns a critical Error of the given kind, decorated with caller.
//It is meant for packages that extend structset (file formats, stores).
func NewError(kind error, message string, caller string) Error {
	return Error{message, kind, []string{caller}, true}
}

func (err Error) Error() string {
	if err.kind == nil {
		return err.message
	}
	return fmt.Sprintf("%s: %s", err.kind, err.message)
}

//Unwrap returns the kind of the error.
func (err Error) Unwrap() error { return err.kind }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//IndexError is returned when a structure index is out of range.
//It carries the requested index and the valid range, [0,Len).
type IndexError struct {
	Index int
	Len   int
	deco  []string
}

func (err IndexError) Error() string {
	return fmt.Sprintf("%s: structure %d requested, valid range is [0, %d)", ErrIndex, err.Index, err.Len)
}

//Unwrap returns ErrIndex
func (err IndexError) Unwrap() error { return ErrIndex }

//Decorate adds dec to the decoration slice of the error and returns it
func (err IndexError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical always returns true for an IndexError
func (err IndexError) Critical() bool { return true }

//errDecorate is a helper function that asserts that the error
//implements ErrorDecorator and decorates the error with the caller's name before returning it.
//errors of other types are returned untouched.
func errDecorate(err error, caller string) error {
	if err2, ok := err.(ErrorDecorator); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}
