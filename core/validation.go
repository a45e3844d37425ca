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

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - ChunkType must not be empty
//   - Text must not be blank
//   - Judgment chunks must carry metadata.external_id
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if chunk.ChunkType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkType)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.IsJudgment() && chunk.ExternalID() == "" {
		return fmt.Errorf("%w: %w: chunk %s", ErrInvalidChunk, ErrMissingExternalID, chunk.ID)
	}

	return nil
}

// AssignID fills in a content-derived ID for chunks loaded without one.
func AssignID(chunk *Chunk) {
	if chunk == nil || strings.TrimSpace(chunk.ID) != "" {
		return
	}
	chunk.ID = "chunk-" + IDFromContent(string(chunk.ChunkType)+"\x00"+chunk.Text).String()
}
