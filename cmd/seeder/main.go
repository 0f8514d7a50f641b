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


// Seeder populates a retrievit database with sample documents, either
// from a directory of text files or from a built-in corpus. Useful for
// smoke-testing search behavior against a live embedding service.
package main

import (
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ingest"
)

var samples = map[string]string{
	"samples/lsm-trees.md": `Log-structured merge trees buffer writes in memory and flush them
to disk as sorted runs. Compaction merges runs in the background, trading
write amplification for fast sequential ingestion. Reads consult a
memtable first, then progressively older runs, aided by bloom filters.`,

	"samples/raft.md": `Raft elects a single leader per term. The leader appends client
commands to its log and replicates them to followers; an entry is
committed once a majority has persisted it. Followers that fall behind
catch up from the leader's log, and a disjoint election timeout prevents
split votes.`,

	"samples/bm25.md": `BM25 ranks documents by summing, over query terms, an inverse
document frequency weight times a saturating term frequency component.
The k1 parameter controls saturation and b controls document length
normalization. Despite its age it remains a strong lexical baseline.`,

	"samples/embeddings.md": `Dense embeddings map text into a vector space where semantic
similarity becomes geometric proximity. Cosine similarity against a
query vector retrieves passages that share meaning without sharing
vocabulary, which complements exact term matching.`,

	"samples/hybrid-search.md": `Hybrid search fuses lexical and vector scores. Each leg is
normalized to a common scale before a weighted combination, so that
neither raw BM25 magnitudes nor cosine values dominate. Reranking then
reorders the fused candidates with a more expensive model.`,

	"samples/badger.md": `Badger is an embeddable key-value store written in Go, built on
an LSM tree with value log separation. Keys live in the tree while large
values are kept in a log, which keeps compaction cheap for workloads
with sizable values.`,

	"samples/chunking.md": `Chunking splits documents into retrievable passages. Recursive
splitting respects paragraph and sentence boundaries where possible and
falls back to fixed windows for long unbroken text. Overlap between
neighboring chunks preserves context that straddles a boundary.`,

	"samples/quantization.md": `Vector quantization compresses embeddings by mapping them onto a
small codebook. Product quantization splits each vector into subspaces
quantized independently, shrinking memory at the cost of approximate
distances.`,
}

var (
	dbPath  = flag.String("db", "./retrievit_db", "path to BadgerDB database directory")
	srcDir  = flag.String("src", "", "directory of text files to index instead of the built-in corpus")
	workers = flag.Int("workers", 0, "concurrent ingestion workers (0 = default)")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// documentsFromDir loads every regular file under dir, keyed by path.
func documentsFromDir(dir string) (map[string]string, error) {
	docs := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docs[path] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func main() {
	engine, err := retrievit.New(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	docs := samples
	if *srcDir != "" {
		docs, err = documentsFromDir(*srcDir)
		if err != nil {
			panic(err)
		}
	}

	var opts []ingest.Option
	if *workers > 0 {
		opts = append(opts, ingest.WithPoolSize(*workers))
	}
	pipeline, err := ingest.NewPipeline(engine, opts...)
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	for source, text := range docs {
		if err := pipeline.Submit(source, text, map[string]string{"seeded": "true"}); err != nil {
			panic(err)
		}
	}
	pipeline.Wait()

	total, failed := pipeline.Processed()
	slog.Info("seeding complete", "documents", total, "failed", failed)
}
