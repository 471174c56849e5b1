package repl

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/gofrs/flock"
)

// historyReader and historyWriter are the parts of *liner.State that load
// and store history.
type historyReader interface {
	ReadHistory(r io.Reader) (int, error)
}

type historyWriter interface {
	WriteHistory(w io.Writer) (int, error)
}

// history persists the line history to a file guarded by a sibling ".lock"
// file, so that two prompts sharing a history file do not interleave writes.
type history struct {
	path     string
	fileLock *flock.Flock
}

func newHistory(path string) *history {
	if path == "" {
		return &history{}
	}
	return &history{path: path, fileLock: flock.New(path + ".lock")}
}

func (h *history) load(dst historyReader) error {
	if h.path == "" {
		return nil
	}
	if err := h.fileLock.RLock(); err != nil {
		return err
	}
	defer func() { _ = h.fileLock.Unlock() }()

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = dst.ReadHistory(f)
	return err
}

func (h *history) save(src historyWriter) error {
	if h.path == "" {
		return nil
	}
	if err := h.fileLock.Lock(); err != nil {
		return err
	}
	defer func() { _ = h.fileLock.Unlock() }()

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := src.WriteHistory(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
