// Package profile generates pprof compatible profiles of constraint synthesis.
//
// A profile session attributes every emitted constraint to the call sites that
// produced it, which is the tool of choice to understand where a circuit's
// constraints come from. Synthesis is single-threaded, so this package is NOT
// thread safe and is meant to be called from the synthesis goroutine.
package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/consensys/hashproof/logger"
	"github.com/google/pprof/profile"
)

// active is the current profiling session, nil when profiling is off. A single
// session may be live at a time; synthesis runs in one goroutine so plain
// loads/stores through an atomic pointer are all the coordination needed for
// RecordConstraint callers.
var active atomic.Pointer[Profile]

// Profile represents an active constraint synthesis profiling session.
type Profile struct {
	// defaults to ./hashproof.pprof
	// if blank, profile is not written to disk
	filePath string

	// actual pprof profile struct
	// details on pprof format: https://github.com/google/pprof/blob/main/proto/README.md
	pprof profile.Profile

	functions map[string]*profile.Function
	locations map[uint64]*profile.Location
}

// Option defines configuration options for a profiling session.
type Option func(*Profile)

// WithPath controls the profile destination file. If blank, the profile is not
// written to disk.
//
// Defaults to ./hashproof.pprof.
func WithPath(path string) Option {
	return func(p *Profile) {
		p.filePath = path
	}
}

// WithNoOutput indicates that the profile is not going to be written to disk.
//
// This is equivalent to WithPath("")
func WithNoOutput() Option {
	return func(p *Profile) {
		p.filePath = ""
	}
}

// Start creates a new active profiling session. When Stop is called, the
// session ends and may be serialized to disk as a pprof compatible file (see
// WithPath option).
func Start(options ...Option) *Profile {
	log := logger.Logger()

	p := &Profile{
		functions: make(map[string]*profile.Function),
		locations: make(map[uint64]*profile.Location),
		filePath:  filepath.Join(".", "hashproof.pprof"),
	}
	p.pprof.SampleType = []*profile.ValueType{{
		Type: "constraints",
		Unit: "count",
	}}

	for _, option := range options {
		option(p)
	}

	if !active.CompareAndSwap(nil, p) {
		log.Fatal().Msg("a profiling session is already active")
	}

	if p.filePath == "" {
		log.Warn().Msg("profiling enabled [not writing to disk]")
	} else {
		log.Info().Str("path", p.filePath).Msg("profiling enabled")
	}

	return p
}

// Stop ends the profiling session and may write the pprof file to disk. See
// WithPath option.
func (p *Profile) Stop() {
	log := logger.Logger()

	if !active.CompareAndSwap(p, nil) {
		log.Fatal().Msg("profile stopped multiple times")
	}

	// if filePath is set, serialize profile to disk in pprof format
	if p.filePath != "" {
		f, err := os.Create(p.filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create profile file")
		}
		if err := p.pprof.Write(f); err != nil {
			log.Error().Err(err).Msg("writing profile")
		}
		f.Close()
		log.Info().Str("path", p.filePath).Int("constraints", p.NbConstraints()).Msg("profiling disabled")
	} else {
		log.Warn().Msg("profiling disabled [not writing to disk]")
	}
}

// NbConstraints returns the number of collected samples (constraints).
func (p *Profile) NbConstraints() int {
	return len(p.pprof.Sample)
}

// RecordConstraint adds a sample (with count == 1) to the active profiling
// session, attributing the constraint to the calling stack. It is a no-op when
// no session is active.
func RecordConstraint() {
	p := active.Load()
	if p == nil {
		return
	}

	pc := make([]uintptr, 20)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return
	}
	p.collectSample(pc[:n])
}

func (p *Profile) collectSample(pc []uintptr) {
	sample := &profile.Sample{Value: []int64{1}}

	frames := runtime.CallersFrames(pc)
	for {
		frame, more := frames.Next()

		// stop below the circuit definition; frames above Synthesize belong
		// to setup or prover plumbing, not to the circuit being profiled
		stop := strings.HasSuffix(frame.Function, ".Synthesize")

		if filterBuilderPrivateFunc(frame.Function) {
			if !more {
				break
			}
			continue
		}

		// generics display poorly in pprof
		// https://github.com/golang/go/issues/54105
		frame.Function = strings.ReplaceAll(frame.Function, "[...]", "[T]")

		sample.Location = append(sample.Location, p.getLocation(&frame))

		if !more || stop {
			break
		}
	}

	p.pprof.Sample = append(p.pprof.Sample, sample)
}

func filterBuilderPrivateFunc(f string) bool {
	const builderPrefix = "github.com/consensys/hashproof/cs.(*Builder)."
	if strings.HasPrefix(f, builderPrefix) && len(f) > len(builderPrefix) {
		// filter builder private APIs from the trace.
		c := []rune(f)[len(builderPrefix)]
		if unicode.IsLower(c) {
			return true
		}
	}
	return false
}

func (p *Profile) getLocation(frame *runtime.Frame) *profile.Location {
	l, ok := p.locations[uint64(frame.PC)]
	if !ok {
		// first let's see if we have the function.
		f, ok := p.functions[frame.File+frame.Function]
		if !ok {
			fe := strings.Split(frame.Function, "/")
			fName := fe[len(fe)-1]
			f = &profile.Function{
				ID:         uint64(len(p.functions) + 1),
				Name:       fName,
				SystemName: frame.Function,
				Filename:   frame.File,
			}

			p.functions[frame.File+frame.Function] = f
			p.pprof.Function = append(p.pprof.Function, f)
		}

		l = &profile.Location{
			ID:   uint64(len(p.locations) + 1),
			Line: []profile.Line{{Function: f, Line: int64(frame.Line)}},
		}
		p.locations[uint64(frame.PC)] = l
		p.pprof.Location = append(p.pprof.Location, l)
	}

	return l
}
