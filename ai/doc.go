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


// Package ai provides abstractions for the model services lexcite depends on.
//
// Two interfaces cover everything the retrieval and attribution code needs:
//
//   - Embedder: turns text into vectors for semantic search
//   - Generator: produces text, either whole or as a lazy stream of fragments
//
// AIProvider bundles both so they can share configuration and be closed together.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible HTTP services through langchaingo
//   - ai/hugot: in-process sentence-transformer embeddings (ONNX)
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in implementation packages return interface types.
// Mock constructors return concrete types so tests can inject behavior
// (the *Func fields) and assert on CallCount.
//
// # Streaming
//
// Generator.CompleteStream returns an iter.Seq2[string, error]. The request
// starts when the caller ranges over the sequence and is cancelled when the
// caller stops early. A sequence can be consumed once; a second range yields
// ErrStreamConsumed.
//
//	for fragment, err := range gen.CompleteStream(ctx, prompt, ai.GenerateOptions{}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(fragment)
//	}
package ai
