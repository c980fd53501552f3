// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrUnknownFamily is returned when a model identifier names no registered family.
	ErrUnknownFamily = errors.New("unknown local model family")

	// ErrEmptyOutput is returned when a model produces no unmasked token states.
	ErrEmptyOutput = errors.New("model produced no token states")
)

// Output is the raw result of running a model over one text.
type Output struct {
	// States holds one hidden-state vector per token.
	States [][]float32
	// Mask marks real tokens with 1 and padding with 0. Nil means all tokens count.
	Mask []int
}

// Model is an in-process embedding model. Implementations must be safe for
// concurrent use.
type Model interface {
	Run(ctx context.Context, text string) (Output, error)
}

// Loader builds a model from the argument part of its identifier.
type Loader func(arg string) (Model, error)

type entry struct {
	once  sync.Once
	model Model
	err   error
}

var (
	familiesMu sync.RWMutex
	families   = map[string]Loader{
		featureHashFamily: loadFeatureHash,
	}

	modelsMu sync.Mutex
	models   = map[string]*entry{}
)

// RegisterFamily makes a model family available to Load.
func RegisterFamily(name string, loader Loader) {
	familiesMu.Lock()
	defer familiesMu.Unlock()
	families[name] = loader
}

// Load returns the model for id, loading it on first use.
// Concurrent callers for the same id share a single load.
func Load(id string) (Model, error) {
	modelsMu.Lock()
	e, ok := models[id]
	if !ok {
		e = &entry{}
		models[id] = e
	}
	modelsMu.Unlock()

	e.once.Do(func() {
		e.model, e.err = loadModel(id)
	})
	if e.err != nil {
		// Drop failed loads so a later call can try again.
		modelsMu.Lock()
		if models[id] == e {
			delete(models, id)
		}
		modelsMu.Unlock()
		return nil, e.err
	}
	return e.model, nil
}

// Loaded reports whether id is resident in the registry.
func Loaded(id string) bool {
	modelsMu.Lock()
	defer modelsMu.Unlock()
	_, ok := models[id]
	return ok
}

// ReleaseAll drops every loaded model.
func ReleaseAll() {
	modelsMu.Lock()
	defer modelsMu.Unlock()
	models = map[string]*entry{}
}

func loadModel(id string) (Model, error) {
	family, arg, _ := strings.Cut(id, ":")

	familiesMu.RLock()
	loader, ok := families[family]
	familiesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}

	m, err := loader(arg)
	if err != nil {
		return nil, fmt.Errorf("loading model %q: %w", id, err)
	}
	return m, nil
}
