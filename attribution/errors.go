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


package attribution

import "errors"

var (
	// ErrIndexRequired is returned when a metadata index is not provided.
	ErrIndexRequired = errors.New("metadata index required")

	// ErrPairExtractorRequired is returned when a pair extractor is not provided.
	ErrPairExtractorRequired = errors.New("pair extractor required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid attributor option")

	// ErrMatchingFailed marks a party pair whose corpus scan failed. The
	// pair contributes no citations; other pairs are unaffected.
	ErrMatchingFailed = errors.New("party pair matching failed")

	// ErrAttributionTimeout marks an attribution abandoned at its deadline.
	ErrAttributionTimeout = errors.New("attribution timed out")

	// ErrReattributionFailed marks a failed re-attribution generation.
	ErrReattributionFailed = errors.New("citation re-attribution failed")
)
