package scanner

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joe/fsinfo/pkg/fileinfo"
)

// Problem causes.
var (
	ErrListing  = errors.New("directory listing failed")
	ErrClassify = errors.New("classification failed")
	ErrCycle    = errors.New("directory cycle")
)

// Problem is a failure absorbed during a scan.
type Problem struct {
	Path string
	Err  error
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

// Unwrap returns the underlying error.
func (p Problem) Unwrap() error {
	return p.Err
}

// Entry pairs a path with its description.
type Entry struct {
	Path string
	Info fileinfo.Info
}

// Result is the outcome of a scan: entries sorted by path, each path once.
type Result struct {
	Root      string
	Recursive bool
	Entries   []Entry
	Problems  []Problem

	index map[string]int
}

// Get returns the Info stored for p.
func (r *Result) Get(p string) (fileinfo.Info, bool) {
	i, ok := r.index[fileinfo.NormalizePath(p)]
	if !ok {
		return nil, false
	}

	return r.Entries[i].Info, true
}

// Paths lists every key in order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Entries))
	for i, entry := range r.Entries {
		paths[i] = entry.Path
	}

	return paths
}

// Len returns the number of entries.
func (r *Result) Len() int {
	return len(r.Entries)
}

// Filter returns a new Result holding the entries keep accepts. Problems are
// carried over unchanged.
func (r *Result) Filter(keep func(Entry) bool) *Result {
	acc := newAccumulator(r.Root, r.Recursive)

	for _, entry := range r.Entries {
		if keep(entry) {
			acc.add(entry)
		}
	}

	acc.problems = append(acc.problems, r.Problems...)

	return acc.result()
}

// accumulator collects one invocation's entries. Only the goroutine owning
// the invocation touches it.
type accumulator struct {
	root      string
	recursive bool
	entries   []Entry
	seen      map[string]struct{}
	problems  []Problem
}

func newAccumulator(root string, recursive bool) *accumulator {
	return &accumulator{
		root:      root,
		recursive: recursive,
		seen:      make(map[string]struct{}),
	}
}

// add keeps the first entry stored under a path.
func (a *accumulator) add(entry Entry) {
	if _, dup := a.seen[entry.Path]; dup {
		return
	}

	a.seen[entry.Path] = struct{}{}
	a.entries = append(a.entries, entry)
}

func (a *accumulator) merge(sub *Result) {
	for _, entry := range sub.Entries {
		a.add(entry)
	}

	a.problems = append(a.problems, sub.Problems...)
}

func (a *accumulator) result() *Result {
	sort.Slice(a.entries, func(i, j int) bool {
		return a.entries[i].Path < a.entries[j].Path
	})

	sort.SliceStable(a.problems, func(i, j int) bool {
		return a.problems[i].Path < a.problems[j].Path
	})

	index := make(map[string]int, len(a.entries))
	for i, entry := range a.entries {
		index[entry.Path] = i
	}

	return &Result{
		Root:      a.root,
		Recursive: a.recursive,
		Entries:   a.entries,
		Problems:  a.problems,
		index:     index,
	}
}
