// Copyright 2025 Poiesic Systems
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


package badger

import "errors"

// MemoryRepositories bundles in-memory repositories sharing one backend.
type MemoryRepositories struct {
	Corpus      *CorpusRepository
	Vectors     *VectorStore
	Checkpoints *CheckpointRepository
	Backend     *Backend
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must call Close when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	corpus, err := newCorpusRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Corpus:      corpus,
		Vectors:     NewVectorStore(backend, 0),
		Checkpoints: NewCheckpointRepository(backend),
		Backend:     backend,
	}, nil
}

// Close closes the repositories and then the backend.
func (m *MemoryRepositories) Close() error {
	return errors.Join(
		m.Vectors.Close(),
		m.Corpus.Close(),
		m.Backend.Close(),
	)
}
