// Package console is the text front end: it reads command lines, renders the
// ring and prints the event stream.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/wfunc/monopoly/prompt"
)

// MaxLine is the longest accepted input line, newline included. Longer
// lines are dropped and reported as prompt.ErrLineTooLong.
const MaxLine = 4096

type readResult struct {
	line string
	err  error
}

// Terminal reads lines from an input stream on its own goroutine so a
// pending read can be abandoned when ctx is cancelled.
type Terminal struct {
	out   io.Writer
	lines chan readResult
	once  sync.Once
	in    io.Reader
	mu    sync.Mutex
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, lines: make(chan readResult)}
}

// start sends every line, then the final error once, and closes lines.
func (t *Terminal) start() {
	go func() {
		defer close(t.lines)
		r := bufio.NewReaderSize(t.in, MaxLine)
		for {
			line, err := readLine(r)
			if err != nil && !errors.Is(err, prompt.ErrLineTooLong) {
				t.lines <- readResult{err: err}
				return
			}
			t.lines <- readResult{line: line, err: err}
		}
	}()
}

// readLine returns the next line without its line ending. A last line with
// no newline is returned before io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	b, err := r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		// 丢弃剩余部分直到换行
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = r.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return "", prompt.ErrLineTooLong
	}
	if err != nil && (!errors.Is(err, io.EOF) || len(b) == 0) {
		return "", err
	}
	line := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (t *Terminal) Prompt(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, text)
}

// ReadLine returns the next line, io.EOF at end of input, or ctx's error.
// A read error is returned once; every later call reports io.EOF.
func (t *Terminal) ReadLine(ctx context.Context) (string, error) {
	t.once.Do(t.start)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

// Writer returns the terminal's output guarded by the same lock as Prompt.
func (t *Terminal) Writer() io.Writer {
	return lockedWriter{t}
}

type lockedWriter struct{ t *Terminal }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	return w.t.out.Write(p)
}
