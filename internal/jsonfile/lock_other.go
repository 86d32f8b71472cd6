//go:build !unix

package jsonfile

import "os"

// Advisory locks are a no-op where flock is unavailable.
func tryLock(f *os.File) (bool, error) { return true, nil }

func unlock(f *os.File) error { return nil }
