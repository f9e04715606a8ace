// Package mmfile provides platform-specific helpers for memory mappings:
// anonymous read-write regions for arenas and read-only file mappings for
// trace files. Non-unix platforms fall back to Go heap memory.
package mmfile
