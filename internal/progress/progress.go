// Package progress prints a one-line status of the running experiment.
package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/j-r-jones/sysjitter/internal/core"
)

type Progress struct {
	clock     core.Clock
	startTime time.Time
	phase     string
	duration  time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex

	// Pin, if set, is called on the ticking goroutine's locked OS thread
	// before the first tick, to keep it off the measured CPUs.
	Pin func() error
}

func NewProgress(quiet bool) *Progress {
	return &Progress{
		clock:  core.RealClock{},
		quiet:  quiet,
		output: os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Start shows the status of a phase that is expected to last duration.
// A nil Progress does nothing.
func (p *Progress) Start(phase string, duration time.Duration) {
	if p == nil || p.quiet {
		return
	}
	p.begin(phase, duration)
	p.stopped.Store(false)
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(1 * time.Second)
	go p.run(p.ticker, p.stopCh)
}

func (p *Progress) begin(phase string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = p.clock.Now()
	p.phase = phase
	p.duration = duration
}

func (p *Progress) run(ticker *time.Ticker, stop chan struct{}) {
	if p.Pin != nil {
		runtime.LockOSThread()
		if err := p.Pin(); err != nil {
			runtime.UnlockOSThread()
		}
	}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := p.clock.Since(p.startTime).Round(time.Second)
	remaining := p.duration - elapsed
	if remaining < 0 {
		remaining = 0
	}
	fmt.Fprintf(p.output, "\033[K[%s] %s run | remaining %s\r",
		clockFormat(elapsed), p.phase, clockFormat(remaining))
}

func clockFormat(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Stop clears the status line. It is safe to call more than once.
func (p *Progress) Stop() {
	if p == nil || p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

// Print writes message on a line of its own, above the status line.
func (p *Progress) Print(message string) {
	if p == nil || p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p == nil || p.quiet {
		return
	}
	p.Print(fmt.Sprintf(format, args...))
}
