// Package storage uploads staged WAV files to durable blob storage.
//
// Two backends implement Uploader: Google Cloud Storage, authenticated per
// call from base64-encoded service account JSON held in an environment
// variable, and Amazon S3, authenticated through the default AWS credential
// chain. Every upload is a single attempt.
package storage
