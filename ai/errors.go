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


package ai

import "errors"

var (
	// ErrStreamConsumed is yielded when a generation stream is ranged over twice.
	ErrStreamConsumed = errors.New("generation stream already consumed")

	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrEmbeddingMismatch indicates an embedding response whose vector count
	// or dimensions do not line up with the request.
	ErrEmbeddingMismatch = errors.New("embedding response does not match request")
)
