// Package lifecycle models foreground and background transitions of the
// application hosting the task manager.
//
// Emitter is the in-process Source: the host (an HTTP endpoint, a signal
// handler, a mobile bridge) calls Emit on every transition, and consumers such
// as background.Manager receive the new State on the channel returned by
// Subscribe. Emit only delivers actual changes; repeating the current state
// is a no-op.
package lifecycle
