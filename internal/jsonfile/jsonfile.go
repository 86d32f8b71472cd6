// Package jsonfile reads JSON files that other processes may be writing,
// guarding each read with a short exclusive lock.
package jsonfile

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/grovetools/teamboard/errors"
	"github.com/sirupsen/logrus"
)

// Reader performs locked JSON reads.
type Reader struct {
	policy RetryPolicy
	logger *logrus.Entry
	sleep  func(context.Context, time.Duration) error
}

// NewReader creates a Reader with the given lock retry policy.
func NewReader(policy RetryPolicy, logger *logrus.Entry) *Reader {
	return &Reader{
		policy: policy,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// ReadJSON locks path, reads it fully, unlocks, and decodes into v.
//
// Error codes: NOT_FOUND when the file is absent, PARSE_ERROR when it holds
// malformed JSON, LOCK_TIMEOUT when the lock stayed busy through every retry,
// INTERNAL_ERROR otherwise.
func (r *Reader) ReadJSON(ctx context.Context, path string, v interface{}) error {
	data, err := r.readLocked(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.ParseFailed(path, err)
	}
	return nil
}

func (r *Reader) readLocked(ctx context.Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "file not found").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open file").
			WithDetail("path", path)
	}
	defer f.Close()

	attempts := r.policy.Attempts()
	locked := false
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.policy.Backoff(attempt-1)); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternal, "lock wait cancelled").
					WithDetail("path", path)
			}
		}
		ok, err := tryLock(f)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to lock file").
				WithDetail("path", path)
		}
		if ok {
			locked = true
			break
		}
		if r.logger != nil {
			r.logger.WithField("path", path).WithField("attempt", attempt+1).Debug("File locked, retrying")
		}
	}
	if !locked {
		return nil, errors.LockTimeout(path, attempts)
	}
	defer func() {
		if err := unlock(f); err != nil && r.logger != nil {
			r.logger.WithError(err).WithField("path", path).Warn("Failed to release file lock")
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read file").
			WithDetail("path", path)
	}
	return data, nil
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListSubdirectories returns the names of the directories directly under dir,
// sorted. A missing dir yields an empty list.
func ListSubdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list directory").
			WithDetail("path", dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListFiles returns the names of regular files directly under dir, optionally
// filtered by extension (e.g. ".json"), sorted. A missing dir yields an empty list.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list directory").
			WithDetail("path", dir)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if ext != "" && !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
