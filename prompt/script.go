package prompt

import (
	"context"
	"io"
	"strings"
	"sync"
)

// Script is a Terminal that answers from a fixed list of lines and records
// every prompt it is shown. It returns io.EOF once the lines run out.
type Script struct {
	mu      sync.Mutex
	lines   []string
	prompts []string
}

func NewScript(lines ...string) *Script {
	return &Script{lines: lines}
}

// Feed appends more answers.
func (s *Script) Feed(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, lines...)
}

func (s *Script) Prompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, text)
}

func (s *Script) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// Remaining is the number of unread lines.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Prompts returns everything shown so far, joined.
func (s *Script) Prompts() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.prompts, "")
}
