// Package core provides table detection for uploaded delimited text files.
//
// This package holds all domain logic independent of any UI or transport
// layer. It is used by the web handlers, the tabsniff CLI and tests without
// modification.
//
// # Detection
//
// [Detect] decodes the raw bytes as UTF-8 (invalid sequences become U+FFFD),
// drops blank lines and lines starting with '#', then parses the remaining
// lines once per candidate separator:
//
//  1. comma
//  2. semicolon
//  3. tab
//  4. runs of whitespace
//
// Columns whose values are all missing are dropped. A table qualifies when it
// has at least two columns and one row, and is scored as columns*10 + rows.
// The first candidate with the strictly highest score wins, so earlier
// candidates win ties. Each candidate's outcome is kept as an [Attempt] on
// the [Detection].
//
// When no candidate qualifies, a single fallback parse runs with a separator
// inferred from the first lines ([InferSeparator]) and its result is
// returned whatever its shape, labelled [LabelInferred]. The only error
// Detect returns is that fallback failing, wrapped in [ErrNoTable].
//
// # Service
//
// [Service] wraps the detector for uploads:
//
//   - [UploadLimiter] bounds how many files are parsed at once
//   - [ReadUpload] enforces the size limit
//   - an optional [ResultCache] keyed by SHA-256 skips repeat work
//   - every successful detection is recorded in a [HistoryStore]
//
// Cache and history failures are logged and never fail a detection.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, empty, not a table)
//   - UPL002-UPL005: Upload errors (busy, cancelled, timeout)
//   - HIS001: History lookups
//   - DB004-DB006: Database connectivity
package core
