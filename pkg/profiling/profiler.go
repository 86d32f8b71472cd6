// Package profiling writes pprof CPU and heap profiles around a command run.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/pflag"
)

// Profiler holds the profile destinations and the open CPU profile.
type Profiler struct {
	CPUPath string
	MemPath string

	cpuFile *os.File
}

// AddFlags registers --cpu-profile and --mem-profile on fs.
func (p *Profiler) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&p.CPUPath, "cpu-profile", "", "Write a CPU profile to this file on exit")
	fs.StringVar(&p.MemPath, "mem-profile", "", "Write a heap profile to this file on exit")
}

// Start begins CPU profiling when CPUPath is set.
func (p *Profiler) Start() error {
	if p.CPUPath == "" {
		return nil
	}
	f, err := os.Create(p.CPUPath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpuFile = f
	return nil
}

// Stop ends CPU profiling and writes the heap profile. Both are attempted;
// the first error is returned.
func (p *Profiler) Stop() error {
	var firstErr error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			firstErr = err
		}
		p.cpuFile = nil
	}

	if p.MemPath != "" {
		if err := writeHeap(p.MemPath); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC() // up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}
