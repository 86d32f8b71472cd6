package logging

import (
	"io"
	"os"
	"sync"
)

// output is the writer shared by every component logger. Swapping its target
// redirects all of them at once.
type output struct {
	mu sync.RWMutex
	w  io.Writer
}

func (o *output) Write(p []byte) (int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.w.Write(p)
}

func (o *output) swap(w io.Writer) io.Writer {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.w
	o.w = w
	return prev
}

var sharedOutput = &output{w: os.Stderr}

// SetGlobalOutput redirects every component logger to w and returns the
// previous target, so tests can restore it.
func SetGlobalOutput(w io.Writer) io.Writer {
	return sharedOutput.swap(w)
}

// GetGlobalOutput returns the writer all component loggers write to.
func GetGlobalOutput() io.Writer {
	return sharedOutput
}
