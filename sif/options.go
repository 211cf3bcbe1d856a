package sif

import (
	"io/fs"
	"os"
)

// Option configures how a File reaches its bytes.
type Option func(*options)

type options struct {
	fsys fs.FS
}

func defaultOptions() *options {
	return &options{}
}

// WithFS reads files from fsys instead of the operating system. Paths are
// then interpreted by fsys, so they must satisfy fs.ValidPath. Files opened
// from fsys must implement io.ReaderAt or io.Seeker for payload reads.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}

// open returns a fresh handle on name. Callers own and must close it.
func (o *options) open(name string) (fs.File, error) {
	if o.fsys == nil {
		return os.Open(name)
	}
	return o.fsys.Open(name)
}
