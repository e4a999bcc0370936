// Package services defines shared utilities consumed by the workflow actions
// and the backend gateway.
//
// Key responsibilities:
//   - Context helpers that stamp client IDs, meeting IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so every failure can be
//     classified (transport, validation, server, poll, conflict) with
//     errors.Is regardless of which layer produced it.
//
// Use these helpers when wiring new actions so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
