// Package diag defines the diagnostic model shared by the repair pipeline.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     the block scanner, the anomaly detector and the patcher, plus per-file
//     I/O failures surfaced by the batch driver.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting layers.
//
// # Scope
//
// Package diag does not perform formatting, IO or CLI integration. Rendering
// lives in internal/diagfmt; the driver converts pipeline outcomes into
// diagnostics.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning, Error.
//   - Code – numeric identifier with a stable string form (BLK1001, IO4001).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the source.Span (line range) pointing to the issue.
//   - Notes – secondary spans, e.g. the open line of a block that was never
//     closed.
//
// Severity maps onto the error taxonomy: a StructuralAmbiguity or an I/O
// failure is an Error and fails the file; detected-and-repaired anomalies are
// Info.
package diag
