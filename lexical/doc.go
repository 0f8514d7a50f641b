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


// Package lexical provides an in-memory BM25 inverted index over chunks.
//
// The Index keeps two side-indexed maps (term to postings and chunk to
// terms) so removal touches only the terms of the removed chunk. Reads
// and writes follow a read-many/write-one discipline: Search may run
// concurrently with other searches but is excluded from Add and Remove.
//
// Tokenization splits CJK text into single characters and treats Latin
// letter runs and digit runs as single case-folded tokens. No stemming
// is applied: the token "cat" does not match "cats".
package lexical
