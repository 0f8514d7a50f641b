// Package ingest provides asynchronous bulk indexing on a worker pool.
//
// The Pipeline type accepts (source, text) submissions and runs the
// chunk, embed, persist, and index work for each document on an ants
// pool. Errors during async processing are logged but do not fail the
// submission; Wait drains in-flight work before shutdown.
package ingest
