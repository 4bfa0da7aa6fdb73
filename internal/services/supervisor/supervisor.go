// Package supervisor implements a one-for-one restart strategy for the
// application's long-running background loops.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultMaxRestarts = 3
	defaultWindow      = 60 * time.Second
	restartBackoff     = 500 * time.Millisecond
)

// ChildFunc is a supervised long-running loop. It must return promptly when
// ctx is canceled. It signals readiness exactly once by closing (or sending
// on) ready; a child that crashes before becoming ready still must close it
// so Start doesn't block forever waiting on a child that will never start.
type ChildFunc func(ctx context.Context, ready chan<- struct{}) error

// ChildSpec names a supervised child and its run function.
type ChildSpec struct {
	Name string
	Run  ChildFunc
}

// Supervisor restarts crashed children up to maxRestarts times within
// window, one child at a time, without affecting its siblings. A child that
// exceeds the restart limit is left dead and recorded as a diagnostic; its
// siblings keep running.
type Supervisor struct {
	logger      *slog.Logger
	maxRestarts int
	window      time.Duration

	// OnRestart, if set, is called every time a child is about to be
	// restarted after a crash. Used to feed the diagnostics service's
	// restart counter; nil is fine (no-op).
	OnRestart func(childName string)

	mu          sync.Mutex
	restartLog  map[string][]time.Time
	diagnostics []string
}

// New builds a Supervisor with the default one-for-one restart policy
// (at most 3 restarts per child per 60s window).
func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		logger:      logger,
		maxRestarts: defaultMaxRestarts,
		window:      defaultWindow,
		restartLog:  make(map[string][]time.Time),
	}
}

// Start launches every child and blocks until all of them have signaled
// readiness (or ctx is canceled first). Each child keeps running,
// restarting on crash per the one-for-one policy, until ctx is done.
func (s *Supervisor) Start(ctx context.Context, children []ChildSpec) {
	var wg sync.WaitGroup
	wg.Add(len(children))

	for _, c := range children {
		c := c
		var once sync.Once
		signalReady := func() {
			once.Do(wg.Done)
		}
		go s.superviseChild(ctx, c, signalReady)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// superviseChild runs c.Run in a restart loop, recovering panics and
// honoring the restart-limit policy. signalReady is invoked exactly once,
// either when the child reports readiness on its own channel or when its
// first attempt ends (successfully, by crash, or by panic) before ever
// reporting readiness.
func (s *Supervisor) superviseChild(ctx context.Context, c ChildSpec, signalReady func()) {
	for {
		if ctx.Err() != nil {
			signalReady()
			return
		}

		err := s.runOnce(ctx, c, signalReady)
		signalReady()

		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Child returned cleanly without ctx cancellation; nothing left
			// to supervise.
			return
		}

		s.logger.Warn("supervised child crashed", "child", c.Name, "error", err)

		if !s.registerCrash(c.Name) {
			s.recordDiagnostic(fmt.Sprintf("%s: exceeded %d restarts within %s, giving up", c.Name, s.maxRestarts, s.window))
			return
		}
		if s.OnRestart != nil {
			s.OnRestart(c.Name)
		}

		select {
		case <-time.After(restartBackoff):
		case <-ctx.Done():
			return
		}
	}
}

// runOnce invokes c.Run once, converting a panic into an error so a single
// child's crash can never take down the process. It forwards the child's
// own readiness signal to signalReady as soon as Run reports it, rather
// than waiting for Run to return (which, for a long-running loop, only
// happens at shutdown).
func (s *Supervisor) runOnce(ctx context.Context, c ChildSpec, signalReady func()) (err error) {
	childReady := make(chan struct{})
	runDone := make(chan struct{})
	defer close(runDone)

	go func() {
		select {
		case <-childReady:
			signalReady()
		case <-runDone:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Run(ctx, childReady)
}

// registerCrash prunes restart timestamps outside the window and records a
// new one. It returns false once the child has crashed more than
// maxRestarts times within the window.
func (s *Supervisor) registerCrash(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-s.window)
	kept := s.restartLog[name][:0]
	for _, t := range s.restartLog[name] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.restartLog[name] = kept

	return len(kept) <= s.maxRestarts
}

func (s *Supervisor) recordDiagnostic(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, msg)
	s.logger.Error("supervisor diagnostic", "message", msg)
}

// Diagnostics returns every restart-limit-exceeded message recorded so far.
func (s *Supervisor) Diagnostics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}
