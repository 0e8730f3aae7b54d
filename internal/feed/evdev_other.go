//go:build !linux

package feed

import "context"

// EvdevReader is only available on Linux.
type EvdevReader struct{}

// OpenEvdev returns ErrUnsupported.
func OpenEvdev(path string, opts ...EvdevOption) (*EvdevReader, error) {
	_ = applyEvdevOptions(opts)
	return nil, ErrUnsupported
}

func (r *EvdevReader) Name() string       { return "" }
func (r *EvdevReader) Pressure() AbsRange { return AbsRange{} }

func (r *EvdevReader) Run(ctx context.Context, sink Sink) error { return ErrUnsupported }
func (r *EvdevReader) Close() error                             { return nil }
