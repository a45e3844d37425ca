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


// Package extract turns free text into structured legal references.
//
// Two extraction problems live here. Query extraction pulls a citation, a
// case number, a case name and party names out of a user's question so the
// judgment matcher has something to compare against corpus metadata. Pair
// extraction pulls "X v. Y" litigant pairs out of a generated answer so the
// attributor can look them up.
//
// Both follow the same shape: a Strategy may fail, and a Fallback composes a
// generative strategy backed by a language model with a deterministic regex
// strategy. The composed extractor never returns an error; at worst it
// returns an empty result.
//
// # Usage
//
//	queries := extract.NewFallbackQueryExtractor(
//	    extract.NewGenerativeQueryExtractor(provider.Generator()),
//	    extract.NewRegexQueryExtractor(),
//	)
//	q := queries.Extract(ctx, "What was held in 2025 Taxo.online 455?")
package extract
