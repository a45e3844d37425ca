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


package corpus

import "errors"

var (
	// ErrInvalidSource is returned for a corpus location that cannot be parsed.
	ErrInvalidSource = errors.New("invalid corpus source")

	// ErrInvalidCorpus is returned when corpus data is not a JSON array or
	// JSON Lines stream of chunks.
	ErrInvalidCorpus = errors.New("invalid corpus data")
)
