// Package lockfile keeps two ThoughtWeaver servers from sharing one SQLite
// template database. The lock is an flock on a file beside the database and
// is released by the kernel if the process dies.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is created in the directory that holds the database.
const LockFileName = "thoughtweaver.lock"

// Lock is a held directory lock.
type Lock struct {
	file *os.File
	path string
}

// AcquireLock takes an exclusive, non-blocking lock on dir.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		slog.Error("Lock.Acquire: failed to open lock file", "error", err, "lock_path", path)
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		holder := holderPID(path)
		slog.Error("Lock.Acquire: database already in use", "lock_path", path, "holder_pid", holder)
		return nil, &LockError{LockPath: path, HolderPID: holder, Cause: err}
	}

	if err := file.Truncate(0); err == nil {
		_, err = file.WriteAt([]byte(fmt.Sprintf("pid=%d\n", os.Getpid())), 0)
		if err != nil {
			slog.Warn("Lock.Acquire: failed to record pid", "error", err, "lock_path", path)
		}
	}

	slog.Info("Lock.Acquire: lock held", "lock_path", path, "pid", os.Getpid())
	return &Lock{file: file, path: path}, nil
}

// ForDatabase locks the directory of a SQLite database path. It returns nil
// for in-memory databases, which cannot be shared.
func ForDatabase(dsn string) (*Lock, error) {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return nil, nil
	}
	return AcquireLock(filepath.Dir(strings.TrimPrefix(dsn, "file:")))
}

// Release drops the lock and removes the file. Safe to call more than once
// and on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Error("Lock.Release: failed to unlock", "error", err, "lock_path", l.path)
	}
	err := l.file.Close()
	l.file = nil
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) {
		slog.Warn("Lock.Release: failed to remove lock file", "error", rmErr, "lock_path", l.path)
	}
	slog.Debug("Lock.Release: released", "lock_path", l.path)
	return err
}

// LockError reports a lock held by another process.
type LockError struct {
	LockPath  string
	HolderPID int
	Cause     error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another ThoughtWeaver server is using this database (lock file %s", e.LockPath)
	if e.HolderPID > 0 {
		msg += fmt.Sprintf(", pid %d", e.HolderPID)
	}
	return msg + ")"
}

func (e *LockError) Unwrap() error { return e.Cause }

// holderPID reads the pid recorded by the current holder, or 0.
func holderPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	s := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(strings.TrimPrefix(s, "pid="))
	if err != nil {
		return 0
	}
	return pid
}
