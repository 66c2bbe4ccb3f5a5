package analytics

import (
	"context"
)

// buildOnce collapses concurrent builds of the same key. A caller whose
// context ends stops waiting; the shared build keeps running for the others.
func (s *Service) buildOnce(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	resultChan := s.group.DoChan(key, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
