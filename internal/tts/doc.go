// Package tts turns announcement text into audio. Engines live in the
// engines subpackage; this package holds the shared request/response types,
// the caching wrapper and synthesis metrics.
package tts
