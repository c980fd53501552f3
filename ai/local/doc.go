// Package local implements ai.Embedder with an in-process model.
//
// Models are loaded lazily, once per model identifier, into a process-wide
// registry and shared read-only by every Embedder that names them. Call
// ReleaseAll at process exit.
//
// An identifier has the form "family" or "family:arg". The built-in
// "feature-hash" family hashes word tokens into fixed pseudo-random vectors;
// its argument is the dimension (default 384). Other families can be added
// with RegisterFamily.
//
// Each text is run through the model separately. The token states are mean
// pooled under the attention mask and L2 normalized.
package local
