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


// Package attribution checks the case citations in a generated answer
// against the corpus and streams back a corrected answer.
//
// Attribution proceeds in stages:
//  1. Party pairs ("X v. Y") are lifted from the answer.
//  2. Each pair is matched against every judgment in the corpus on a bounded
//     worker pool, exactly first and then by weighted token overlap.
//  3. If anything matched, a generator is asked to rewrite only the citation
//     annotations and its output is streamed to the caller.
//
// The whole step runs under one deadline. When it expires, or anything else
// fails, the caller receives the original answer instead; nothing in this
// package returns an error after construction.
package attribution
