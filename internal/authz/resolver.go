package authz

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrAmbiguousBinding indicates a binding whose pattern collides with an
// already registered binding for the same method.
var ErrAmbiguousBinding = errors.New("authz: ambiguous route binding")

// ErrInvalidBinding indicates a binding that failed validation.
var ErrInvalidBinding = errors.New("authz: invalid route binding")

// segment is one path element of a tokenized binding pattern. A param
// segment matches exactly one non-separator request segment.
type segment struct {
	literal string
	param   bool
}

type patternBinding struct {
	method       string
	raw          string
	segments     []segment
	capabilityID int64
}

type routeKey struct {
	method string
	path   string
}

// Resolver maps (method, path) pairs to capabilities. Static paths are
// matched exactly; parameterized bindings are tokenized at registration
// and compared segment by segment, only after exact lookup fails.
//
// Registration rejects a pattern whose segment shape collides with an
// existing binding for the same method, so resolution never depends on
// registration order.
type Resolver struct {
	mu       sync.RWMutex
	exact    map[routeKey]int64
	patterns []patternBinding
	validate *validator.Validate
}

// NewResolver constructs an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		exact:    make(map[routeKey]int64),
		validate: validator.New(),
	}
}

// Register adds one binding.
func (r *Resolver) Register(b RouteBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(b)
}

// Replace swaps the full binding table atomically. Used when reloading
// route discovery output from storage.
func (r *Resolver) Replace(bindings []RouteBinding) error {
	next := NewResolver()
	for _, b := range bindings {
		if err := next.register(b); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.exact = next.exact
	r.patterns = next.patterns
	r.mu.Unlock()
	return nil
}

func (r *Resolver) register(b RouteBinding) error {
	b.Method = strings.ToUpper(strings.TrimSpace(b.Method))
	b.Path = strings.TrimSpace(b.Path)
	if err := r.validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidBinding, b.Method, b.Path, err)
	}
	b.Path = normalizePath(b.Path)

	segments, parameterized := tokenize(b.Path)
	if !parameterized {
		key := routeKey{method: b.Method, path: b.Path}
		if _, exists := r.exact[key]; exists {
			return fmt.Errorf("%w: duplicate %s %s", ErrAmbiguousBinding, b.Method, b.Path)
		}
		r.exact[key] = b.CapabilityID
		return nil
	}

	candidate := patternBinding{
		method:       b.Method,
		raw:          b.Path,
		segments:     segments,
		capabilityID: b.CapabilityID,
	}
	for _, existing := range r.patterns {
		if methodsOverlap(existing.method, candidate.method) && shapesCollide(existing.segments, candidate.segments) {
			return fmt.Errorf("%w: %s %s collides with %s", ErrAmbiguousBinding, b.Method, b.Path, existing.raw)
		}
	}
	r.patterns = append(r.patterns, candidate)
	return nil
}

// Resolve returns the capability bound to the request, or false when no
// binding matches.
func (r *Resolver) Resolve(method, path string) (int64, bool) {
	method = strings.ToUpper(method)
	path = normalizePath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.exact[routeKey{method: method, path: path}]; ok {
		return id, true
	}
	if id, ok := r.exact[routeKey{method: "", path: path}]; ok {
		return id, true
	}

	parts := splitPath(path)
	for _, p := range r.patterns {
		if p.method != "" && p.method != method {
			continue
		}
		if matchSegments(p.segments, parts) {
			return p.capabilityID, true
		}
	}
	return 0, false
}

// tokenize splits a binding path into segments and reports whether any
// of them is a ":param" placeholder.
func tokenize(path string) ([]segment, bool) {
	parts := splitPath(path)
	segments := make([]segment, len(parts))
	parameterized := false
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			segments[i] = segment{param: true}
			parameterized = true
			continue
		}
		segments[i] = segment{literal: part}
	}
	return segments, parameterized
}

// normalizePath canonicalizes slash variants so exact lookup and
// pattern matching see the same path. "/api/users/" and "/api/users"
// are the same binding.
func normalizePath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern []segment, parts []string) bool {
	if len(pattern) != len(parts) {
		return false
	}
	for i, seg := range pattern {
		if seg.param {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if seg.literal != parts[i] {
			return false
		}
	}
	return true
}

func methodsOverlap(a, b string) bool {
	return a == "" || b == "" || a == b
}

// shapesCollide reports whether two patterns can match the same concrete
// path: equal length, and at every position either both are params or
// the literals agree or one side is a param.
func shapesCollide(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].param || b[i].param {
			continue
		}
		if a[i].literal != b[i].literal {
			return false
		}
	}
	return true
}
