// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"context"
	"io"
)

// NewCancelReaderFunc returns a new [*CancelReaderFunc].
func NewCancelReaderFunc() *CancelReaderFunc {
	return &CancelReaderFunc{}
}

// CancelReaderFunc arranges for an [io.ReadCloser] to be closed when the
// context is done (cancelled or deadline exceeded), so a blocking Read
// inside [Ingest] unblocks promptly on external cancellation (e.g. a CLI's
// SIGINT via signal.NotifyContext) instead of running to the next
// `ctx.Err()` checkpoint between items.
//
// The returned reader wraps the input. Closing the returned reader
// unregisters the context watcher and closes the underlying reader. This
// ensures no goroutine leaks even if the context is never cancelled.
//
// Use this primitive when a trace is being read from something that can
// block indefinitely (a pipe, a slow network mount); it is unnecessary for
// an in-memory []byte or *bytes.Reader source, which never blocks.
type CancelReaderFunc struct{}

var _ Func[io.ReadCloser, io.ReadCloser] = &CancelReaderFunc{}

// Call registers a context watcher using [context.AfterFunc] that closes
// r when the context is done. The returned [io.ReadCloser] wraps r:
// closing it unregisters the watcher and closes the underlying reader.
func (op *CancelReaderFunc) Call(ctx context.Context, r io.ReadCloser) (io.ReadCloser, error) {
	stop := context.AfterFunc(ctx, func() {
		r.Close()
	})
	return &cancelWatchedReader{ReadCloser: r, stop: stop}, nil
}

// cancelWatchedReader wraps an [io.ReadCloser] with a context cancellation
// watcher.
type cancelWatchedReader struct {
	io.ReadCloser
	stop func() bool
}

// Close unregisters the context watcher and closes the underlying reader.
func (c *cancelWatchedReader) Close() error {
	c.stop()
	return c.ReadCloser.Close()
}
