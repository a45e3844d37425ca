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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunkID indicates the chunk has no identifier.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrEmptyChunkType indicates the chunk has no type.
	ErrEmptyChunkType = errors.New("chunk type cannot be empty")

	// ErrEmptyText indicates the chunk text is empty.
	ErrEmptyText = errors.New("chunk text cannot be empty")

	// ErrMissingExternalID indicates a judgment chunk without an external_id.
	ErrMissingExternalID = errors.New("judgment chunk requires external_id")
)
