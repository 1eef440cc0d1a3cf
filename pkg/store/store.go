// Package store provides in-memory storage for l-systems and their
// interpretations.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lemonberrylabs/lindenmaker/pkg/runtime"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

var (
	// ErrNotFound is wrapped by lookups of missing resources.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is wrapped when creating a resource twice.
	ErrAlreadyExists = errors.New("already exists")
)

// InterpretationState represents the state of an interpretation.
type InterpretationState string

const (
	InterpretationActive    InterpretationState = "ACTIVE"
	InterpretationSucceeded InterpretationState = "SUCCEEDED"
	InterpretationFailed    InterpretationState = "FAILED"
)

// LSystem represents a stored l-system document.
type LSystem struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RevisionID  string    `json:"revisionId"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
	SourceCode  string    `json:"sourceContents"`
}

// Interpretation represents one run of an l-system.
type Interpretation struct {
	Name              string               `json:"name"`
	State             InterpretationState  `json:"state"`
	LSystemRevisionID string               `json:"lsystemRevisionId"`
	Options           runtime.Options      `json:"options"`
	Result            *runtime.Result      `json:"result,omitempty"`
	Stats             *scene.Stats         `json:"stats,omitempty"`
	Error             *InterpretationError `json:"error,omitempty"`
	StartTime         time.Time            `json:"startTime"`
	EndTime           time.Time            `json:"endTime,omitempty"`

	// Scene is the built scene. It is set on success and never modified
	// afterwards.
	Scene *scene.Scene `json:"-"`
}

// InterpretationError represents the error of a failed interpretation.
type InterpretationError struct {
	Payload string `json:"payload"`
	Context string `json:"context,omitempty"`
}

// StateCounts holds the number of interpretations per state.
type StateCounts struct {
	LSystems  int
	Active    int
	Succeeded int
	Failed    int
}

// Store is a thread-safe in-memory storage for l-systems and
// interpretations. Returned records are copies.
type Store struct {
	mu              sync.RWMutex
	lsystems        map[string]*LSystem
	interpretations map[string]*Interpretation

	// Counters for generating unique IDs
	interpCounter int64
	revCounter    int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		lsystems:        make(map[string]*LSystem),
		interpretations: make(map[string]*Interpretation),
	}
}

// LSystemName returns the resource name of an l-system ID.
func LSystemName(id string) string { return "lsystems/" + id }

// InterpretationName returns the resource name of an interpretation ID.
func InterpretationName(lsystemID, id string) string {
	return fmt.Sprintf("lsystems/%s/interpretations/%s", lsystemID, id)
}

// CreateLSystem stores a new l-system document.
func (s *Store) CreateLSystem(id, sourceCode, description string) (*LSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := LSystemName(id)
	if _, exists := s.lsystems[name]; exists {
		return nil, fmt.Errorf("lsystem '%s' %w", name, ErrAlreadyExists)
	}

	s.revCounter++
	now := time.Now()
	ls := &LSystem{
		Name:        name,
		Description: description,
		RevisionID:  fmt.Sprintf("%06d-000", s.revCounter),
		CreateTime:  now,
		UpdateTime:  now,
		SourceCode:  sourceCode,
	}
	s.lsystems[name] = ls
	c := *ls
	return &c, nil
}

// GetLSystem retrieves an l-system by its full name.
func (s *Store) GetLSystem(name string) (*LSystem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.lsystems[name]
	if !ok {
		return nil, fmt.Errorf("lsystem '%s' %w", name, ErrNotFound)
	}
	c := *ls
	return &c, nil
}

// ListLSystems returns all l-systems ordered by name.
func (s *Store) ListLSystems() []*LSystem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*LSystem, 0, len(s.lsystems))
	for _, ls := range s.lsystems {
		c := *ls
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// UpdateLSystem replaces an l-system's source and bumps its revision. An
// empty description keeps the current one.
func (s *Store) UpdateLSystem(name, sourceCode, description string) (*LSystem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.lsystems[name]
	if !ok {
		return nil, fmt.Errorf("lsystem '%s' %w", name, ErrNotFound)
	}

	s.revCounter++
	ls.SourceCode = sourceCode
	if description != "" {
		ls.Description = description
	}
	ls.RevisionID = fmt.Sprintf("%06d-000", s.revCounter)
	ls.UpdateTime = time.Now()

	c := *ls
	return &c, nil
}

// DeleteLSystem removes an l-system and all of its interpretations.
func (s *Store) DeleteLSystem(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lsystems[name]; !ok {
		return fmt.Errorf("lsystem '%s' %w", name, ErrNotFound)
	}
	delete(s.lsystems, name)

	prefix := name + "/interpretations/"
	for n := range s.interpretations {
		if strings.HasPrefix(n, prefix) {
			delete(s.interpretations, n)
		}
	}
	return nil
}

// CreateInterpretation records a new active interpretation of an l-system.
func (s *Store) CreateInterpretation(lsystemName string, opts runtime.Options) (*Interpretation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.lsystems[lsystemName]
	if !ok {
		return nil, fmt.Errorf("lsystem '%s' %w", lsystemName, ErrNotFound)
	}

	s.interpCounter++
	name := fmt.Sprintf("%s/interpretations/interp-%d", lsystemName, s.interpCounter)

	in := &Interpretation{
		Name:              name,
		State:             InterpretationActive,
		LSystemRevisionID: ls.RevisionID,
		Options:           opts,
		StartTime:         time.Now(),
	}
	s.interpretations[name] = in
	c := *in
	return &c, nil
}

// GetInterpretation retrieves an interpretation by name.
func (s *Store) GetInterpretation(name string) (*Interpretation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.interpretations[name]
	if !ok {
		return nil, fmt.Errorf("interpretation '%s' %w", name, ErrNotFound)
	}
	c := *in
	return &c, nil
}

// ListInterpretations returns the interpretations of an l-system, oldest
// first. An empty lsystemName lists every interpretation.
func (s *Store) ListInterpretations(lsystemName string) []*Interpretation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Interpretation
	prefix := lsystemName + "/interpretations/"
	for name, in := range s.interpretations {
		if lsystemName == "" || strings.HasPrefix(name, prefix) {
			c := *in
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// CompleteInterpretation marks an interpretation as succeeded.
func (s *Store) CompleteInterpretation(name string, sc *scene.Scene, res *runtime.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.interpretations[name]
	if !ok {
		return fmt.Errorf("interpretation '%s' %w", name, ErrNotFound)
	}

	in.State = InterpretationSucceeded
	in.EndTime = time.Now()
	in.Result = res
	in.Scene = sc
	if sc != nil {
		stats := sc.Stats()
		in.Stats = &stats
	}
	return nil
}

// FailInterpretation marks an interpretation as failed. Interpreter errors
// are stored as their JSON payload, anything else as its message.
func (s *Store) FailInterpretation(name string, err error, res *runtime.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.interpretations[name]
	if !ok {
		return fmt.Errorf("interpretation '%s' %w", name, ErrNotFound)
	}

	in.State = InterpretationFailed
	in.EndTime = time.Now()
	in.Result = res

	payload := err.Error()
	var where string
	if ie := types.AsInterpretError(err); ie != nil {
		if b, jerr := json.Marshal(ie.ToMap()); jerr == nil {
			payload = string(b)
		}
		if ie.Pos >= 0 {
			where = fmt.Sprintf("token %q at position %d", ie.Token, ie.Pos)
		}
	}
	in.Error = &InterpretationError{Payload: payload, Context: where}
	return nil
}

// Counts returns the number of l-systems and of interpretations per state.
func (s *Store) Counts() StateCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := StateCounts{LSystems: len(s.lsystems)}
	for _, in := range s.interpretations {
		switch in.State {
		case InterpretationActive:
			counts.Active++
		case InterpretationSucceeded:
			counts.Succeeded++
		case InterpretationFailed:
			counts.Failed++
		}
	}
	return counts
}
