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


// Package chunk splits document text into retrievable units.
//
// A Chunker is constructed once for a strategy and configuration and is
// safe for concurrent use. Six strategies are available:
//
//   - Fixed-size and Sliding-window: positional character windows
//   - Sentence and Paragraph: structural splits merged up to the size limit
//   - Recursive: a coarse-to-fine separator ladder
//   - Markdown: heading-delimited sections, recursively split when oversized
//
// Every produced chunk is an exact span of the source text: Content equals
// source[StartOffset:EndOffset] with byte offsets. Sizes are measured in
// runes by default; a custom length function (for example a token
// estimator) can replace the measure for the structural strategies.
package chunk
