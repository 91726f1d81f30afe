package fsstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const (
	lockDirName    = ".lock"
	lockOwnerFile  = "owner.json"
	lockStaleAfter = 2 * time.Minute
	lockPollEvery  = 25 * time.Millisecond
)

// lockOwner is written inside a held lock directory.
type lockOwner struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// withDirLock runs fn while holding the lock directory lockDir, waiting up to
// wait for it. Timing out is ErrInternal.
func withDirLock(lockDir string, wait time.Duration, fn func() error) error {
	if err := acquireDirLock(lockDir, wait); err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(lockDir); err != nil {
			slog.Warn("failed to release lock", "lock", lockDir, "error", err)
		}
	}()
	return fn()
}

func acquireDirLock(lockDir string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := os.Mkdir(lockDir, 0o755)
		switch {
		case err == nil:
			writeLockOwner(lockDir)
			return nil
		case !errors.Is(err, fs.ErrExist):
			return fmt.Errorf("failed to create lock %s: %w", lockDir, err)
		}

		if isStaleLock(lockDir, lockStaleAfter, time.Now()) {
			slog.Warn("breaking stale lock", "lock", lockDir)
			_ = os.RemoveAll(lockDir)
			continue
		}
		if time.Now().After(deadline) {
			return testsuite.Internalf("timed out after %s waiting for lock %s", wait, lockDir)
		}
		time.Sleep(lockPollEvery)
	}
}

// writeLockOwner records this process in the lock. A lock without an owner
// file is still valid; it just ages out by directory mtime.
func writeLockOwner(lockDir string) {
	data, err := json.Marshal(lockOwner{PID: os.Getpid(), AcquiredAt: time.Now().UTC()})
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(lockDir, lockOwnerFile), data, 0o644)
}

func readLockOwner(lockDir string) (lockOwner, bool) {
	data, err := os.ReadFile(filepath.Join(lockDir, lockOwnerFile))
	if err != nil {
		return lockOwner{}, false
	}
	var owner lockOwner
	if json.Unmarshal(data, &owner) != nil || owner.PID <= 0 {
		return lockOwner{}, false
	}
	return owner, true
}

// isStaleLock reports whether the lock at lockDir is older than staleAfter and
// its owner, if known, is no longer running.
func isStaleLock(lockDir string, staleAfter time.Duration, now time.Time) bool {
	info, err := os.Stat(lockDir)
	if err != nil {
		return false
	}
	acquired := info.ModTime()
	owner, known := readLockOwner(lockDir)
	if known && !owner.AcquiredAt.IsZero() {
		acquired = owner.AcquiredAt
	}
	if now.Sub(acquired) <= staleAfter {
		return false
	}
	return !known || !processAlive(owner.PID)
}
