package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/wfunc/monopoly/event"
)

// Printer writes every event as one "[TAG] text" line.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Emit(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, e.String())
}
