// Package tasks runs bulk lyrics operations with real-time progress reporting.
//
// # Operations
//
//  1. [Importer.Import] : Load a JSON dump of lyrics records
//     - Null lyrics are stored as the empty string, a missing status as pending
//     - Invalid records are counted as failed without stopping the run
//     - With [ImportOptions.SkipDuplicates], records the strict guard flags are skipped
//
//  2. [Exporter.Export] : Write every live entry as a JSON dump that Import accepts
//
//  3. [BulkReport] : Scan the library once per scorer on a worker pool
//     - Writes one report per scorer and format plus manifest.json
//     - A failed scorer is recorded in the manifest; the others still complete
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking; a nil channel disables reporting.
package tasks
