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


// Package vector defines the nearest-neighbor store capability consumed
// by the retrieval engine, together with a dependency-free in-memory
// reference implementation.
//
// The engine assumes cosine similarity semantics; any backing store with
// a monotone-equivalent metric can sit behind the Store interface. The
// badger-backed implementation in storage/badger produces the same
// ordering semantics as the memory store here.
package vector
