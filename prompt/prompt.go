// Package prompt runs the interactive questions asked in the middle of a
// turn (buy?, which item?, which gift?) as a small retry state machine.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Terminal is the line source a question is asked on. ReadLine returns
// io.EOF once input is exhausted.
type Terminal interface {
	Prompt(text string)
	ReadLine(ctx context.Context) (string, error)
}

var (
	// ErrAborted means the player backed out of the question.
	ErrAborted = errors.New("prompt aborted")
	// ErrLineTooLong is returned by a Terminal that dropped an over-long
	// line. The next ReadLine continues with the following line.
	ErrLineTooLong = errors.New("input line too long")
)

type Status int

const (
	Prompting Status = iota
	Rejected
	Accepted
	Aborted
)

func (s Status) String() string {
	switch s {
	case Prompting:
		return "prompting"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Parser turns an answer into a value. Returning ErrAborted ends the
// question; any other error re-prompts with the error text.
type Parser[T any] func(line string) (T, error)

// Ask repeats question until parse accepts an answer or the player aborts.
// An over-long line re-prompts. Other input errors (EOF, cancellation) abort
// the question and are returned as is.
func Ask[T any](ctx context.Context, term Terminal, question string, parse Parser[T]) (T, error) {
	var (
		zero   T
		value  T
		reason error
		status = Prompting
	)
	for {
		switch status {
		case Prompting:
			term.Prompt(question)
			line, err := term.ReadLine(ctx)
			if errors.Is(err, ErrLineTooLong) {
				reason = err
				status = Rejected
				continue
			}
			if err != nil {
				return zero, err
			}
			v, err := parse(strings.TrimSpace(line))
			switch {
			case errors.Is(err, ErrAborted):
				status = Aborted
			case err != nil:
				reason = err
				status = Rejected
			default:
				value = v
				status = Accepted
			}
		case Rejected:
			term.Prompt(reason.Error() + "\n")
			status = Prompting
		case Accepted:
			return value, nil
		case Aborted:
			return zero, ErrAborted
		}
	}
}

// Confirm asks a yes/no question.
func Confirm(ctx context.Context, term Terminal, question string) (bool, error) {
	return Ask(ctx, term, question+" [y/n] ", func(line string) (bool, error) {
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		return false, fmt.Errorf("please answer y or n")
	})
}

// Choose lists options and returns the zero-based index picked. Options can
// be picked by 1-based number or by name; "0" or "quit" abort.
func Choose(ctx context.Context, term Terminal, question string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, ErrAborted
	}
	var b strings.Builder
	b.WriteString(question)
	b.WriteByte('\n')
	for i, o := range options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, o)
	}
	b.WriteString("choice (0 to leave): ")

	return Ask(ctx, term, b.String(), func(line string) (int, error) {
		switch strings.ToLower(line) {
		case "0", "quit":
			return -1, ErrAborted
		}
		if n, err := strconv.Atoi(line); err == nil {
			if n < 1 || n > len(options) {
				return -1, fmt.Errorf("choice %d out of range", n)
			}
			return n - 1, nil
		}
		for i, o := range options {
			if strings.EqualFold(o, line) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("unknown choice %q", line)
	})
}

// Int asks for a number in [min, max]. An empty answer selects def.
func Int(ctx context.Context, term Terminal, question string, min, max, def int) (int, error) {
	return Ask(ctx, term, question, func(line string) (int, error) {
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", line)
		}
		if n < min || n > max {
			return 0, fmt.Errorf("%d is outside [%d, %d]", n, min, max)
		}
		return n, nil
	})
}
