package formatter

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Step is a single transformation in a formatting pipeline.
//
// Format receives content with unix newlines and must not introduce
// carriage returns. A returned error leaves the content untouched for the
// next step.
type Step interface {
	// Name returns the step name used in logs and config (e.g. "trim_trailing_whitespace").
	Name() string

	Format(rawUnix, file string) (string, error)
}

// Keyed is implemented by steps whose behavior is fully determined by a
// serializable key. Two steps with the same key format identically.
type Keyed interface {
	Step
	Key() (StepKey, error)
}

// Func is the formatting function a step delegates to.
type Func func(rawUnix, file string) (string, error)

// Closer releases whatever a Func holds on to. The step rebuilds the
// function the next time it is needed.
type Closer func() error

// NewStep returns a step whose function is built from key on first use.
func NewStep[K any](name string, key K, build func(K) (Func, error)) Step {
	return NewLazy(name, func() (K, error) { return key, nil }, build)
}

// NewLazy is like NewStep but the key itself is computed on first use, for
// keys which are expensive to build (reading settings files and the like).
func NewLazy[K any](name string, key func() (K, error), build func(K) (Func, error)) Step {
	return &lazyStep[K]{
		name: name,
		key:  sync.OnceValues(key),
		build: func(k K) (Func, Closer, error) {
			fn, err := build(k)
			return fn, nil, err
		},
	}
}

// NewCloseable returns a step whose function holds resources. Finish on the
// owning Formatter calls the closer.
func NewCloseable[K any](name string, key K, build func(K) (Func, Closer, error)) Step {
	return &lazyStep[K]{
		name:  name,
		key:   sync.OnceValues(func() (K, error) { return key, nil }),
		build: build,
	}
}

// NewNeverUpToDate returns a step without a meaningful key. Its Key is
// unique per step so it never equals any other step, itself rebuilt
// included.
func NewNeverUpToDate(name string, fn Func) Step {
	return &neverUpToDate{name: name, fn: fn, nonce: neverNonce.Add(1)}
}

type lazyStep[K any] struct {
	name  string
	key   func() (K, error)
	build func(K) (Func, Closer, error)

	mu     sync.Mutex
	fn     Func
	closer Closer
}

func (s *lazyStep[K]) Name() string { return s.name }

func (s *lazyStep[K]) Format(rawUnix, file string) (string, error) {
	fn, err := s.function()
	if err != nil {
		return "", err
	}
	return fn(rawUnix, file)
}

func (s *lazyStep[K]) function() (Func, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fn != nil {
		return s.fn, nil
	}
	key, err := s.key()
	if err != nil {
		return nil, fmt.Errorf("computing key: %w", err)
	}
	fn, closer, err := s.build(key)
	if err != nil {
		return nil, fmt.Errorf("building function: %w", err)
	}
	s.fn, s.closer = fn, closer
	return fn, nil
}

func (s *lazyStep[K]) Key() (StepKey, error) {
	key, err := s.key()
	if err != nil {
		return StepKey{}, err
	}
	return KeyOf(s.name, key)
}

// Close releases the built function, if any.
func (s *lazyStep[K]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	closer := s.closer
	s.fn, s.closer = nil, nil
	if closer == nil {
		return nil
	}
	return closer()
}

var neverNonce atomic.Uint64

type neverUpToDate struct {
	name  string
	fn    Func
	nonce uint64
}

func (s *neverUpToDate) Name() string { return s.name }

func (s *neverUpToDate) Format(rawUnix, file string) (string, error) {
	return s.fn(rawUnix, file)
}

func (s *neverUpToDate) Key() (StepKey, error) {
	return KeyOf(s.name, struct {
		Nonce uint64 `msgpack:"nonce"`
	}{s.nonce})
}

// FilterByFile returns a step which applies s only to files accepted by
// match and passes every other file through untouched. The filter's key
// is folded into the step key.
func FilterByFile[K any](s Step, filterKey K, match func(file string) bool) Step {
	return &filteredStep[K]{Step: s, filterKey: filterKey, match: match}
}

type filteredStep[K any] struct {
	Step
	filterKey K
	match     func(file string) bool
}

func (s *filteredStep[K]) Format(rawUnix, file string) (string, error) {
	if !s.match(file) {
		return rawUnix, nil
	}
	return s.Step.Format(rawUnix, file)
}

func (s *filteredStep[K]) Key() (StepKey, error) {
	inner, err := keyOf(s.Step)
	if err != nil {
		return StepKey{}, err
	}
	return KeyOf(s.Name(), struct {
		Inner  StepKey `msgpack:"inner"`
		Filter K       `msgpack:"filter"`
	}{inner, s.filterKey})
}

func (s *filteredStep[K]) Close() error {
	if c, ok := s.Step.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ErrNoKey is returned for steps which do not implement Keyed.
var ErrNoKey = errors.New("step has no key")

func keyOf(s Step) (StepKey, error) {
	k, ok := s.(Keyed)
	if !ok {
		return StepKey{}, fmt.Errorf("%s: %w", s.Name(), ErrNoKey)
	}
	return k.Key()
}
