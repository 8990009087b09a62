// SPDX-License-Identifier: GPL-3.0-or-later

// Package trace turns a Universal-Tracer XML capture of an ISO-7816 / BIP
// session between a mobile equipment and a SIM/eUICC into a higher-order
// analytical view.
//
// # Core Abstraction
//
// Ingestion produces an immutable [*TraceModel]: a flat, ordered slice of
// [TraceItem] values plus a handful of lookup indices. Every later stage
// (pairing, session reconstruction, payload reassembly, protocol
// classification, TLS/DNS analysis, validation, flow building, scenario
// matching) reads that model and produces its own read-only output; stages
// never mutate the model or each other and reference trace rows by
// [TraceItem.Index] rather than by pointer.
//
// [IngestFunc] expresses ingestion itself as a [Func][io.ReadCloser, *TraceModel];
// [LoadReadCloser] chains it behind [CancelReaderFunc] via [Compose2] so a
// blocked Read against a stalled file or pipe unblocks promptly when the
// caller's context is cancelled. The remaining stages are plain functions
// and [*Pipeline] methods, since each one needs different extra arguments
// (a model plus pairs, a model plus sessions, ...) that a single [Func[A,B]]
// signature can't carry; [*Pipeline.Analyze] instead threads an internal
// state value through [Compose4] so pairing, sessions, validate and flow
// can still be composed rather than hand-called in sequence.
//
// # Available Stages
//
//   - [IngestFunc] / [Ingest] / [LoadReadCloser]: parses a `<tracedata>`
//     document into a [*TraceModel]
//   - [*Pipeline.Pairs]: correlates FETCH/proactive-command items with their
//     TERMINAL RESPONSE
//   - [*Pipeline.Sessions]: reconstructs [ChannelSession] lifecycles and
//     resolves their [Role]
//   - [*Pipeline.Validate]: emits [ValidationIssue] values, sorted
//     chronologically
//   - [*Pipeline.Flow]: merges sessions and key events into one timeline
//   - [*Pipeline.RunScenario]: evaluates a declarative [Scenario] against
//     that timeline
//   - [*Pipeline.TLSFlow]: reassembles and parses the TLS records for one
//     session
//
// [*Pipeline.Analyze] runs pairing, sessions, validation and flow building
// in the dependency order §2 describes and returns the bundled [Analysis].
//
// # Observability
//
// All stages accept an [SLogger] (compatible with [log/slog]) and an
// [ErrClassifier], following the same convention: logging is a no-op
// unless a logger is explicitly configured, and every partial failure is
// reported as data (a [ValidationIssue], or a decoder's own failed result)
// rather than a propagated error. Only a malformed root document is fatal; see
// [ErrInvalidXML].
//
// # Configuration
//
// All tunables — approved cipher suites, hostname/IP role tables, the
// role-detection item cap, max-gap defaults, timestamp layouts — live in a
// single immutable [*AnalysisConfig] built by [NewAnalysisConfig]. There is
// no global mutable state in this package.
//
// # Concurrency
//
// The pipeline is single-threaded and deterministic per trace; independent
// traces may be analyzed concurrently from separate goroutines.
// [*Pipeline.IngestAsync] offloads parsing to a worker goroutine and is
// context-transparent: this package never sets its own timeouts, the
// caller controls cancellation via the [context.Context] it passes in.
package trace
