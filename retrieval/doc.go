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


// Package retrieval fuses judgment-metadata matches, exact statutory lookups
// and semantic vector search into one ranked list of corpus chunks.
//
// The Retriever runs the stages in a fixed order:
//   - intent extraction (citation, case number, party names)
//   - judgment matching, only when the extraction found something to match
//   - exact statutory lookup (section, rule, HSN, SAC)
//   - vector search over the query embedding
//
// Scores are fused per chunk, chunks of a matched judgment suppress every
// other hit for the same judgment, and the sorted list is reordered inside
// narrow score bands so that higher-authority material comes first.
package retrieval
