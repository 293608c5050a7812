package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"golang.org/x/sync/singleflight"
)

// Key identifies the attempt a session works on.
type Key struct {
	Mode     models.AttemptMode
	PromptID string
}

func (k Key) String() string {
	return fmt.Sprintf("%s::%s", k.Mode, k.PromptID)
}

// AttemptRef identifies a created attempt and its draft submission.
type AttemptRef struct {
	AttemptID     string `json:"attempt_id"`
	SubmissionID  string `json:"submission_id"`
	AttemptNumber int    `json:"attempt_number"`
}

// Ensurer runs the attempt creation for a key at most once. Concurrent callers
// share the in-flight call; a failed call is not remembered so it can be retried.
type Ensurer struct {
	group singleflight.Group

	mu   sync.Mutex
	done map[string]AttemptRef
	gen  map[string]uint64
}

func NewEnsurer() *Ensurer {
	return &Ensurer{
		done: make(map[string]AttemptRef),
		gen:  make(map[string]uint64),
	}
}

// Ensure returns the attempt for key, calling create only if none exists yet.
func (e *Ensurer) Ensure(ctx context.Context, key string, create func(context.Context) (AttemptRef, error)) (AttemptRef, error) {
	e.mu.Lock()
	if ref, ok := e.done[key]; ok {
		e.mu.Unlock()
		return ref, nil
	}
	gen := e.gen[key]
	e.mu.Unlock()

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		ref, err := create(ctx)
		if err != nil {
			return AttemptRef{}, err
		}

		e.mu.Lock()
		if e.gen[key] == gen {
			e.done[key] = ref
		}
		e.mu.Unlock()
		return ref, nil
	})
	if err != nil {
		return AttemptRef{}, err
	}
	return v.(AttemptRef), nil
}

// Lookup returns the remembered attempt for key, if any.
func (e *Ensurer) Lookup(key string) (AttemptRef, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref, ok := e.done[key]
	return ref, ok
}

// Forget drops the remembered attempt so the next Ensure creates a new one.
// A creation still in flight for key is not remembered when it completes.
func (e *Ensurer) Forget(key string) {
	e.mu.Lock()
	delete(e.done, key)
	e.gen[key]++
	e.mu.Unlock()
	e.group.Forget(key)
}
