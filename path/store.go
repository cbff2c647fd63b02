package path

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ReloadPolicy decides what a second Load does.
type ReloadPolicy int

const (
	// ReloadReject fails every load after the first with ErrAlreadyLoaded.
	ReloadReject ReloadPolicy = iota
	// ReloadReplace swaps in the new path atomically. Readers holding the previous snapshot keep
	// using it until they take a new one.
	ReloadReplace
)

func (p ReloadPolicy) String() string {
	switch p {
	case ReloadReject:
		return "reject"
	case ReloadReplace:
		return "replace"
	}
	return "unknown"
}

// ReloadPolicyFromString parses "reject" or "replace"; the empty string means reject.
func ReloadPolicyFromString(s string) (ReloadPolicy, error) {
	switch strings.ToLower(s) {
	case "", "reject":
		return ReloadReject, nil
	case "replace":
		return ReloadReplace, nil
	}
	return ReloadReject, errors.Errorf("unknown reload policy %q", s)
}

// MarshalJSON encodes the policy by name.
func (p ReloadPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a policy name.
func (p *ReloadPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	policy, err := ReloadPolicyFromString(s)
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// A Store owns the reference path. Readers take a Snapshot and work on it for the duration of
// one cycle; writers never mutate a published Path.
type Store struct {
	policy  ReloadPolicy
	current atomic.Pointer[Path]
}

// NewStore returns an empty store using the given reload policy.
func NewStore(policy ReloadPolicy) *Store {
	return &Store{policy: policy}
}

// Load sets the path. Empty input is rejected with ErrEmptyPath. Under ReloadReject a second
// call fails with ErrAlreadyLoaded and leaves the first path in place.
func (s *Store) Load(points []Waypoint) error {
	if len(points) == 0 {
		return errors.Wrap(ErrEmptyPath, "cannot load a path with no waypoints")
	}
	next := New(points)
	if s.policy == ReloadReplace {
		s.current.Store(next)
		return nil
	}
	if !s.current.CompareAndSwap(nil, next) {
		return ErrAlreadyLoaded
	}
	return nil
}

// Snapshot returns the current path, or nil when nothing is loaded.
func (s *Store) Snapshot() *Path {
	return s.current.Load()
}

// Get returns the waypoint at index i mod Len().
func (s *Store) Get(i int) (Waypoint, error) {
	p := s.Snapshot()
	if p.Len() == 0 {
		return Waypoint{}, ErrEmptyPath
	}
	return p.At(i), nil
}

// Len returns the number of waypoints in the current path.
func (s *Store) Len() int {
	return s.Snapshot().Len()
}

// IsLoaded reports whether a path is present.
func (s *Store) IsLoaded() bool {
	return s.Snapshot() != nil
}

// Policy returns the store's reload policy.
func (s *Store) Policy() ReloadPolicy {
	return s.policy
}
