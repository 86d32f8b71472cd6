package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	var p Profiler
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	p.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--cpu-profile", filepath.Join(dir, "cpu.pprof"),
		"--mem-profile", filepath.Join(dir, "mem.pprof"),
	}))

	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())

	for _, name := range []string{"cpu.pprof", "mem.pprof"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestProfilerDisabled(t *testing.T) {
	var p Profiler
	assert.NoError(t, p.Start())
	assert.NoError(t, p.Stop())
}

func TestProfilerBadPath(t *testing.T) {
	p := Profiler{CPUPath: filepath.Join(t.TempDir(), "missing", "cpu.pprof")}
	assert.Error(t, p.Start())

	p = Profiler{MemPath: filepath.Join(t.TempDir(), "missing", "mem.pprof")}
	require.NoError(t, p.Start())
	assert.Error(t, p.Stop())
}
