// Package sources locates and reads the raw CSV exports feeding the
// pipeline.
//
// Discovery scans a flat directory and classifies files into entity
// categories by filename substring, evaluated in a fixed priority order
// so a file can never be double-classified. Files that match no pattern
// are silently excluded; the caller decides whether an empty manifest is
// fatal.
//
// Reading is best-effort on encoding: UTF-8 (with or without a BOM) is
// tried first, falling back to ISO 8859-1, which decodes any byte
// sequence and therefore cannot fail.
package sources
