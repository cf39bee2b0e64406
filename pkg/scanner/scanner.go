// Package scanner enumerates directory trees concurrently. Every child of a
// directory is classified in its own goroutine, directories found along the
// way are scanned the same way, and each invocation completes exactly once
// with a path-sorted Result.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joe/fsinfo/pkg/fileinfo"
	"github.com/joe/fsinfo/pkg/filesystem"
)

const tracerName = "github.com/joe/fsinfo/pkg/scanner"

// Logger receives debug output about absorbed problems.
type Logger interface {
	Debugf(format string, args ...any)
}

// Outcome is what ScanAsync delivers: a Result, or the context's error when
// the caller gave up first.
type Outcome struct {
	Result *Result
	Err    error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the debug logger.
func WithLogger(logger Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithEventEmitter sets the event emitter.
func WithEventEmitter(emitter EventEmitter) Option {
	return func(s *Scanner) { s.emitter = emitter }
}

// WithTracerProvider sets where invocation spans go. Defaults to the global
// provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(s *Scanner) { s.tracer = provider.Tracer(tracerName) }
}

// WithGetwd sets the working directory source for relative roots when the
// context carries none. Defaults to os.Getwd.
func WithGetwd(getwd func() (string, error)) Option {
	return func(s *Scanner) { s.getwd = getwd }
}

// Scanner walks directory trees through a Driver, describing every entry
// with the Infos its Factory builds.
type Scanner struct {
	driver  filesystem.Driver
	factory fileinfo.Factory
	logger  Logger
	emitter EventEmitter
	tracer  trace.Tracer
	getwd   func() (string, error)
}

// New creates a Scanner.
func New(driver filesystem.Driver, factory fileinfo.Factory, opts ...Option) *Scanner {
	s := &Scanner{
		driver:  driver,
		factory: factory,
		tracer:  otel.Tracer(tracerName),
		getwd:   os.Getwd,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan blocks until the scan of root completes. The only error is the
// context's, in which case the partial result is discarded.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool) (*Result, error) {
	outcome := <-s.ScanAsync(ctx, root, recursive)

	return outcome.Result, outcome.Err
}

// ScanAsync starts a scan of root and returns a channel that receives
// exactly one Outcome. A relative root is made absolute against the working
// directory read once, here; every Info of the scan resolves against it.
func (s *Scanner) ScanAsync(ctx context.Context, root string, recursive bool) <-chan Outcome {
	out := make(chan Outcome, 1)

	wd, ok := fileinfo.WorkDirFrom(ctx)
	if !ok {
		var err error
		if wd, err = s.getwd(); err != nil {
			wd = ""
		}

		ctx = fileinfo.WithWorkDir(ctx, wd)
	}

	root = fileinfo.AbsPath(root, wd)

	go func() {
		s.emit(ScanStarted{Root: root, Recursive: recursive})

		done := make(chan *Result, 1)

		go func() {
			done <- s.invoke(ctx, root, nil, recursive, nil)
		}()

		select {
		case result := <-done:
			s.emit(ScanComplete{Root: root, Count: result.Len(), Problems: len(result.Problems)})
			out <- Outcome{Result: result}
		case <-ctx.Done():
			out <- Outcome{Err: ctx.Err()}
		}
	}()

	return out
}

type identity struct {
	device uint64
	inode  uint64
}

type messageKind int

const (
	childClassified messageKind = iota
	subScanDone
)

// message is the only way child goroutines talk to their invocation.
type message struct {
	kind  messageKind
	entry Entry
	isDir bool
	err   error
	sub   *Result
}

// invoke scans one directory and, when recursive, every directory below it.
// self is the directory's Info when the caller already built it. ancestors
// holds the identities of the directories on the path from the top.
func (s *Scanner) invoke(
	ctx context.Context,
	dir string,
	self fileinfo.Info,
	recursive bool,
	ancestors []identity,
) *Result {
	ctx, span := s.tracer.Start(ctx, "scanner.scan")
	defer span.End()

	span.SetAttributes(attribute.String("path", dir), attribute.Bool("recursive", recursive))

	if self == nil {
		self = s.factory(ctx, dir)
	}

	acc := newAccumulator(dir, recursive)
	acc.add(Entry{Path: dir, Info: self})

	if stat, _ := self.Stat(ctx); stat != nil {
		ancestors = append(ancestors[:len(ancestors):len(ancestors)], identity{stat.Device, stat.Inode})
	}

	names, err := s.driver.ReadDir(ctx, dir)
	if err != nil {
		s.absorb(acc, dir, fmt.Errorf("%w: %w", ErrListing, err))

		names = nil
	}

	s.emit(DirectoryListed{Path: dir, Count: len(names)})

	if len(names) == 0 {
		return s.finish(span, acc)
	}

	// Each child sends one classification and at most one sub-scan result.
	msgs := make(chan message, 2*len(names))
	pending := len(names)

	for _, name := range names {
		child := fileinfo.JoinPath(dir, name)

		go func() {
			info := s.factory(ctx, child)
			isDir, err := info.IsDir(ctx)

			msgs <- message{kind: childClassified, entry: Entry{Path: child, Info: info}, isDir: isDir, err: err}
		}()
	}

	for pending > 0 {
		msg := <-msgs

		switch msg.kind {
		case childClassified:
			acc.add(msg.entry)

			if failure := classificationFailure(msg.entry.Info, msg.err); failure != nil {
				s.absorb(acc, msg.entry.Path, fmt.Errorf("%w: %w", ErrClassify, failure))

				msg.isDir = false
			}

			s.emit(EntryClassified{Path: msg.entry.Path, IsDir: msg.isDir})

			if !msg.isDir || !recursive {
				pending--

				continue
			}

			if s.onChain(ctx, msg.entry.Info, ancestors) {
				s.absorb(acc, msg.entry.Path, ErrCycle)
				pending--

				continue
			}

			go func(entry Entry) {
				msgs <- message{kind: subScanDone, sub: s.invoke(ctx, entry.Path, entry.Info, true, ancestors)}
			}(msg.entry)

		case subScanDone:
			acc.merge(msg.sub)
			pending--
		}
	}

	return s.finish(span, acc)
}

func (s *Scanner) finish(span trace.Span, acc *accumulator) *Result {
	result := acc.result()
	span.SetAttributes(attribute.Int("entries", result.Len()))

	return result
}

// classificationFailure returns why a child could not be classified, or nil.
// A path that vanished or a dangling link is simply not a directory.
func classificationFailure(info fileinfo.Info, err error) error {
	if err != nil {
		return err
	}

	last := info.LastError()
	if last == nil || errors.Is(last, fs.ErrNotExist) {
		return nil
	}

	return last
}

// onChain reports whether info resolves to a directory already being
// scanned above it.
func (s *Scanner) onChain(ctx context.Context, info fileinfo.Info, ancestors []identity) bool {
	stat, _ := info.Stat(ctx)
	if stat == nil {
		return false
	}

	id := identity{stat.Device, stat.Inode}
	for _, ancestor := range ancestors {
		if ancestor == id {
			return true
		}
	}

	return false
}

func (s *Scanner) absorb(acc *accumulator, p string, err error) {
	problem := Problem{Path: p, Err: err}
	acc.problems = append(acc.problems, problem)

	if s.logger != nil {
		s.logger.Debugf("absorbed problem at %s: %v", p, err)
	}

	s.emit(ProblemAbsorbed{Problem: problem})
}

// emit sends an event if an emitter is configured.
func (s *Scanner) emit(event Event) {
	if s.emitter != nil {
		s.emitter.Emit(event)
	}
}
