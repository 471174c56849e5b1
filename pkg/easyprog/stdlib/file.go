package stdlib

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/ledongthuc/pdf"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// Custom value IDs of the host kinds this package hands out.
const (
	FileID     uint64 = 0
	DatabaseID uint64 = 1
)

// fileHandle is an open file. Compressed modes layer gzip over the file.
type fileHandle struct {
	path string
	mode string
	f    *os.File
	r    io.Reader
	w    io.Writer
	gz   io.Closer // gzip stream to finish before closing f
	bw   *bufio.Writer
	open bool
}

func (h *fileHandle) TypeName() string { return "file" }

func (h *fileHandle) Equal(other evaluator.HostValue) bool {
	o, ok := other.(*fileHandle)
	return ok && o == h
}

func (h *fileHandle) close() error {
	if !h.open {
		return nil
	}
	h.open = false
	var first error
	if h.bw != nil {
		first = h.bw.Flush()
	}
	if h.gz != nil {
		if err := h.gz.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := h.f.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

func openFile(path, mode string) (*fileHandle, error) {
	h := &fileHandle{path: path, mode: mode, open: true}
	var err error
	switch mode {
	case "r":
		h.f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		h.r = bufio.NewReader(h.f)
	case "rz":
		h.f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		zr, err := gzip.NewReader(bufio.NewReader(h.f))
		if err != nil {
			h.f.Close()
			return nil, err
		}
		h.r, h.gz = zr, zr
	case "w", "a":
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if mode == "a" {
			flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		h.f, err = os.OpenFile(path, flags, 0o644)
		if err != nil {
			return nil, err
		}
		h.bw = bufio.NewWriter(h.f)
		h.w = h.bw
	case "wz":
		h.f, err = os.Create(path)
		if err != nil {
			return nil, err
		}
		zw := gzip.NewWriter(h.f)
		h.w, h.gz = zw, zw
	default:
		return nil, errUnknownMode
	}
	return h, nil
}

var errUnknownMode = errors.New("unknown mode")

func fileBuiltins(res *resources) []builtin {
	return []builtin{
		{"fopen", func(c *call) (evaluator.Value, error) { return builtinFopen(c, res) }},
		{"fread", builtinFread},
		{"fwrite", builtinFwrite},
		{"fclose", func(c *call) (evaluator.Value, error) { return builtinFclose(c, res) }},
		{"pdf_text", builtinPDFText},
	}
}

// builtinFopen opens path in one of the modes r, w, a, rz or wz.
func builtinFopen(c *call, res *resources) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	path, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	mode, err := c.strArg(1)
	if err != nil {
		return nil, err
	}

	h, err := openFile(path, mode)
	if err == errUnknownMode {
		return nil, c.fail("VALUE-0003", map[string]any{"Mode": mode})
	}
	if err != nil {
		return nil, c.failErr("IO-0001", err, map[string]any{"Path": path})
	}
	res.files[h] = struct{}{}
	return &evaluator.Custom{ID: FileID, Data: h}, nil
}

func (c *call) fileArg(i int) (*fileHandle, error) {
	hv, err := c.handleArg(i, FileID, "file")
	if err != nil {
		return nil, err
	}
	h, ok := hv.(*fileHandle)
	if !ok {
		return nil, c.fail("TYPE-0002", map[string]any{
			"Function": c.name, "Index": i + 1, "Expected": "file", "Got": hv.TypeName(),
		})
	}
	return h, nil
}

// builtinFread returns the rest of the file.
func builtinFread(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	h, err := c.fileArg(0)
	if err != nil {
		return nil, err
	}
	if !h.open || h.r == nil {
		return nil, c.fail("IO-0004", map[string]any{"Op": "reading"})
	}
	data, err := io.ReadAll(h.r)
	if err != nil {
		return nil, c.failErr("IO-0002", err, nil)
	}
	return str(string(data)), nil
}

func builtinFwrite(c *call) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	h, err := c.fileArg(0)
	if err != nil {
		return nil, err
	}
	text, err := c.strArg(1)
	if err != nil {
		return nil, err
	}
	if !h.open || h.w == nil {
		return nil, c.fail("IO-0004", map[string]any{"Op": "writing"})
	}
	if _, err := io.WriteString(h.w, text); err != nil {
		return nil, c.failErr("IO-0003", err, nil)
	}
	return void, nil
}

// builtinFclose closes a file. Closing twice is allowed.
func builtinFclose(c *call, res *resources) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	h, err := c.fileArg(0)
	if err != nil {
		return nil, err
	}
	delete(res.files, h)
	if err := h.close(); err != nil {
		return nil, c.failErr("IO-0003", err, nil)
	}
	return void, nil
}

// builtinPDFText extracts the plain text of a text-based PDF.
func builtinPDFText(c *call) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	path, err := c.strArg(0)
	if err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, c.failErr("IO-0005", err, map[string]any{"Path": path})
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, c.failErr("IO-0005", err, map[string]any{"Path": path})
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, c.failErr("IO-0005", err, map[string]any{"Path": path})
	}
	return str(buf.String()), nil
}
