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


// Package retrieval provides hybrid lexical and vector search over chunks.
//
// The Retriever type runs both legs in parallel, normalizes each result
// batch by its maximum score, fuses the normalized scores with
// configurable weights, deduplicates by chunk id, and attaches highlight
// snippets. It owns the in-memory BM25 index and a chunk content cache;
// the vector store and embedder are injected collaborators.
//
// Failure semantics distinguish the two legs: an embedding failure is
// ErrEmbeddingUnavailable and a store failure ErrVectorStoreUnavailable,
// so callers can degrade to lexical-only search deliberately.
package retrieval
