// Package cache keeps synthesized speech on disk so repeated announcements
// skip the TTS service. Entries are zstd compressed when that makes them
// smaller and the least recently used entry is evicted when the cache grows
// past its capacity.
package cache
