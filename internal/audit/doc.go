// Package audit implements async event dispatching for authentication operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, username, IP and metadata.
//
// This package owns event buffering and sink delivery. It does not decide which events
// to emit; the Engine does. It must not import tokenauth or any sibling internal package.
package audit
