// Copyright (c) 2025 BVK Chaitanya

package cli

import (
	"context"
	"io"
	"os"
)

type stdoutKey struct{}

// WithStdout returns a context that redirects a command's normal output to
// the given writer. Used to capture command output for non-terminal
// frontends like the telegram bot.
func WithStdout(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey{}, w)
}

// Stdout returns the output writer associated with the context, which
// defaults to os.Stdout.
func Stdout(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(stdoutKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}
