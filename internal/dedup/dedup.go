package dedup

import (
	"golang.org/x/sync/singleflight"

	"go-reliable-fetch/internal/models"
)

// Coordinator collapses concurrent fetches sharing a key into one execution
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator creates a coordinator with its own in-flight registry
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Do runs fn once per key among concurrent callers. Every caller gets a
// private copy of the result; deduped is true for callers that did not run fn.
// An empty key always runs fn.
func (c *Coordinator) Do(key string, fn func() (*models.FetchResult, error)) (*models.FetchResult, error, bool) {
	if key == "" {
		result, err := fn()
		return result, err, false
	}

	leader := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		leader = true
		return fn()
	})

	result, _ := v.(*models.FetchResult)
	result = result.Copy()
	if !leader && result != nil {
		result.Deduped = true
	}
	return result, err, !leader
}
