// Package ingest turns one raw PCM clip into a named WAV object in blob storage.
//
// A request moves through Received, Staged, Classified, Named, Uploaded and
// Cleaned. The staged file is removed on every path once it exists.
package ingest
