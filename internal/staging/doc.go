// Package staging owns the local WAV files written between request receipt and upload.
// Every staged file is named by its request's base identifier plus a random request id,
// and is released exactly once whatever the outcome of classification and upload.
package staging
