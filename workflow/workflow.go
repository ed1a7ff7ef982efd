/*
 * workflow.go, part of structset.
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

//Package workflow chains the operations that build a cluster expansion:
//enumerating structures from a prototype, labeling them with energies,
//storing them and training a model on them.
package workflow

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rmera/structset"
	"github.com/rmera/structset/internal/logging"
)

//Context holds the data passed from one step to the next.
type Context struct {
	Prototype       *structset.Structure
	ChemicalSymbols [][]string //allowed elements for each site of the prototype
	Sizes           []int      //supercell sizes to enumerate
	Collection      *structset.Collection
	Energies        []float64
	ID              string //identity of the last stored collection
	Model           string //path of the trained model
}

//Step is a named unit of work.
type Step struct {
	Name string
	Run  func(ctx context.Context, c *Context) error
}

//Pipeline runs steps in order.
type Pipeline struct {
	Steps []Step
	log   *zap.SugaredLogger
}

//NewPipeline returns a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{Steps: steps}
}

//SetLogger sets the logger for the pipeline.
func (P *Pipeline) SetLogger(l *zap.SugaredLogger) { P.log = l }

//Run runs the steps in order on c, and stops at the first one that fails.
//The error returned carries the name of that step.
func (P *Pipeline) Run(ctx context.Context, c *Context) error {
	log := logging.OrNop(P.log)
	for i, s := range P.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow: before step %s: %w", s.Name, err)
		}
		start := time.Now()
		log.Infow("step started", "step", s.Name, "index", i)
		if err := s.Run(ctx, c); err != nil {
			log.Errorw("step failed", "step", s.Name, "error", err)
			return fmt.Errorf("workflow: step %s: %w", s.Name, err)
		}
		log.Infow("step finished", "step", s.Name, "elapsed", time.Since(start))
	}
	return nil
}

//Enumerator produces the structures derived from a prototype.
type Enumerator interface {
	Enumerate(ctx context.Context, prototype *structset.Structure, symbols [][]string, sizes []int) (*structset.Collection, error)
}

//Evaluator computes the energy of a structure.
type Evaluator interface {
	Evaluate(ctx context.Context, s *structset.Structure) (float64, error)
}

//EvaluatorFunc lets an ordinary function be used as an Evaluator.
type EvaluatorFunc func(ctx context.Context, s *structset.Structure) (float64, error)

//Evaluate calls f(ctx, s).
func (f EvaluatorFunc) Evaluate(ctx context.Context, s *structset.Structure) (float64, error) {
	return f(ctx, s)
}

//Trainer trains a model on a labeled collection and returns where the model is.
type Trainer interface {
	Train(ctx context.Context, prototype *structset.Structure, symbols [][]string, C *structset.Collection) (string, error)
}

//EnumerateStep sets the collection to the structures enumerated by e.
func EnumerateStep(e Enumerator) Step {
	return Step{Name: "enumerate", Run: func(ctx context.Context, c *Context) error {
		if c.Prototype == nil {
			return structset.NewError(structset.ErrValidation, "no prototype structure", "EnumerateStep")
		}
		C, err := e.Enumerate(ctx, c.Prototype, c.ChemicalSymbols, c.Sizes)
		if err != nil {
			return err
		}
		c.Collection = C
		c.Energies = nil
		c.ID = ""
		return nil
	}}
}

//LabelStep evaluates the energy of each structure in the collection, using up to
//workers concurrent evaluations (the number of CPUs if not given), and attaches
//them to it. A frozen collection is cloned first, and the clone replaces it.
func LabelStep(e Evaluator, workers ...int) Step {
	n := runtime.NumCPU()
	if len(workers) > 0 && workers[0] > 0 {
		n = workers[0]
	}
	return Step{Name: "label", Run: func(ctx context.Context, c *Context) error {
		if c.Collection == nil {
			return structset.NewError(structset.ErrValidation, "no collection to label", "LabelStep")
		}
		C := c.Collection
		energies := make([]float64, C.Len())
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(n)
		for i := 0; i < C.Len(); i++ {
			i := i
			g.Go(func() error {
				s, err := C.Structure(i)
				if err != nil {
					return err
				}
				en, err := e.Evaluate(gctx, s)
				if err != nil {
					return fmt.Errorf("structure %d: %w", i, err)
				}
				energies[i] = en
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if C.IsFrozen() {
			C = C.Clone()
		}
		if err := C.SetEnergies(energies); err != nil {
			return err
		}
		c.Collection = C
		c.Energies = energies
		return nil
	}}
}

//StoreStep stores the collection with p, which freezes it, and records its identity.
func StoreStep(p structset.Persister) Step {
	return Step{Name: "store", Run: func(ctx context.Context, c *Context) error {
		if c.Collection == nil {
			return structset.NewError(structset.ErrValidation, "no collection to store", "StoreStep")
		}
		id, err := c.Collection.Store(ctx, p)
		if err != nil {
			return err
		}
		c.ID = id
		return nil
	}}
}

//TrainStep trains a model on the labeled collection and records where it is.
func TrainStep(t Trainer) Step {
	return Step{Name: "train", Run: func(ctx context.Context, c *Context) error {
		if c.Collection == nil || !c.Collection.HasEnergies() {
			return structset.NewError(structset.ErrValidation, "training needs a labeled collection", "TrainStep")
		}
		model, err := t.Train(ctx, c.Prototype, c.ChemicalSymbols, c.Collection)
		if err != nil {
			return err
		}
		c.Model = model
		return nil
	}}
}
