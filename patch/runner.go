package patch

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/dexpatch/container"
	"github.com/chazu/dexpatch/dalvik"
)

// Options controls which patches a Runner applies and how failures are
// handled.
type Options struct {
	// Package and Version identify the target app for compatibility checks.
	// An empty Package skips the checks.
	Package string
	Version string

	// Include restricts the run to the named patches; empty means all.
	Include []string
	Exclude []string

	// FailFast stops the run at the first failed patch.
	FailFast bool

	// IgnoreCompatibility applies patches regardless of their declared
	// compatibility.
	IgnoreCompatibility bool
}

// Status is the outcome of one patch.
type Status uint8

const (
	StatusApplied Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Result records what happened to one patch.
type Result struct {
	Patch    string
	Status   Status
	Err      error // failure cause, or why the patch was skipped
	Changes  []container.Change
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID   uuid.UUID
	Started time.Time
	Results []Result
	Changes []container.Change // net changes of the whole run
}

// OK reports whether no patch failed.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0
}

// Failed returns the results of failed patches.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the result for the named patch.
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Patch == name {
			return res, true
		}
	}
	return Result{}, false
}

// Summary returns a one-line count of outcomes.
func (r *Report) Summary() string {
	var applied, failed, skipped int
	for _, res := range r.Results {
		switch res.Status {
		case StatusApplied:
			applied++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return fmt.Sprintf("%d applied, %d failed, %d skipped, %d methods changed", applied, failed, skipped, len(r.Changes))
}

// ErrAborted is the skip reason for patches not attempted after a failure
// in a fail-fast run.
var ErrAborted = errors.New("run aborted by an earlier failure")

// ErrExcluded is the skip reason for excluded patches.
var ErrExcluded = errors.New("excluded")

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// Runner applies patches to a class set. Each patch runs against the live
// set with a snapshot taken beforehand; a failing patch is rolled back to
// its snapshot, so it never leaves a partial edit behind.
type Runner struct {
	opts Options
	log  commonlog.Logger
}

// NewRunner creates a runner.
func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts, log: commonlog.GetLogger("dexpatch.runner")}
}

// Run applies patches to cs in order.
func (r *Runner) Run(cs *dalvik.ClassSet, patches []*Patch) *Report {
	report := &Report{RunID: uuid.New(), Started: time.Now()}
	r.log.Infof("run %s: %d patches available", report.RunID, len(patches))

	initial := cs.Clone()
	aborted := false

	for _, p := range r.selectPatches(patches, report) {
		if aborted {
			report.Results = append(report.Results, Result{Patch: p.Name, Status: StatusSkipped, Err: ErrAborted})
			continue
		}
		if err := r.checkCompatible(p); err != nil {
			r.log.Warningf("skipping %q: %v", p.Name, err)
			report.Results = append(report.Results, Result{Patch: p.Name, Status: StatusSkipped, Err: err})
			continue
		}

		res := r.apply(cs, p)
		report.Results = append(report.Results, res)
		if res.Status == StatusFailed && r.opts.FailFast {
			aborted = true
		}
	}

	report.Changes = container.Diff(initial, cs)
	r.log.Infof("run %s: %s", report.RunID, report.Summary())
	return report
}

// selectPatches applies Include and Exclude. Included names that match no
// patch are recorded as failures so a typo in a manifest is not silent.
func (r *Runner) selectPatches(patches []*Patch, report *Report) []*Patch {
	var selected []*Patch
	for _, p := range patches {
		switch {
		case len(r.opts.Include) > 0 && !slices.Contains(r.opts.Include, p.Name):
			continue
		case slices.Contains(r.opts.Exclude, p.Name):
			report.Results = append(report.Results, Result{Patch: p.Name, Status: StatusSkipped, Err: ErrExcluded})
			continue
		}
		selected = append(selected, p)
	}
	for _, name := range r.opts.Include {
		if !slices.ContainsFunc(patches, func(p *Patch) bool { return p.Name == name }) {
			report.Results = append(report.Results, Result{Patch: name, Status: StatusFailed, Err: fmt.Errorf("unknown patch %q", name)})
		}
	}
	return selected
}

func (r *Runner) checkCompatible(p *Patch) error {
	if r.opts.IgnoreCompatibility || r.opts.Package == "" {
		return nil
	}
	if !p.CompatibleWith(r.opts.Package, r.opts.Version) {
		return &IncompatibleError{Patch: p.Name, Package: r.opts.Package, Version: r.opts.Version}
	}
	return nil
}

// apply runs one patch, restoring the snapshot if it fails or panics.
func (r *Runner) apply(cs *dalvik.ClassSet, p *Patch) (res Result) {
	start := time.Now()
	res.Patch = p.Name
	snapshot := cs.Clone()

	defer func() {
		if v := recover(); v != nil {
			res.Err = fmt.Errorf("patch %q panicked: %v", p.Name, v)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			cs.Restore(snapshot)
			res.Status = StatusFailed
			res.Changes = nil
			r.log.Errorf("patch %q failed: %v", p.Name, res.Err)
			return
		}
		res.Status = StatusApplied
		res.Changes = container.Diff(snapshot, cs)
		r.log.Infof("patch %q applied: %d methods changed in %s", p.Name, len(res.Changes), res.Duration)
	}()

	if p.Execute == nil {
		res.Err = fmt.Errorf("patch %q has no Execute function", p.Name)
		return res
	}
	ctx := NewContext(cs, commonlog.NewScopeLogger(r.log, p.Name))
	if err := p.Execute(ctx); err != nil {
		res.Err = fmt.Errorf("patch %q: %w", p.Name, err)
	}
	return res
}
