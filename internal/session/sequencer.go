package session

import (
	"fmt"
	"sort"

	"github.com/ayusman/posecoach/internal/pose"
)

// queued is a frame waiting for release together with its landmarks.
type queued struct {
	FrameRecord
	set *pose.LandmarkSet
}

// sequencer is a reorder buffer that releases frames strictly by index.
type sequencer struct {
	next    int
	pending map[int]queued
}

func newSequencer() *sequencer {
	return &sequencer{pending: make(map[int]queued)}
}

// push accepts a frame and returns every frame now releasable in order.
func (q *sequencer) push(rec queued) ([]queued, error) {
	if rec.Index < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrInvalidFrame, rec.Index)
	}
	if rec.Index < q.next {
		return nil, fmt.Errorf("%w: frame %d already processed", ErrDuplicateFrame, rec.Index)
	}
	if _, ok := q.pending[rec.Index]; ok {
		return nil, fmt.Errorf("%w: frame %d already queued", ErrDuplicateFrame, rec.Index)
	}

	q.pending[rec.Index] = rec

	var released []queued
	for {
		r, ok := q.pending[q.next]
		if !ok {
			break
		}
		delete(q.pending, q.next)
		released = append(released, r)
		q.next++
	}
	return released, nil
}

// flush releases every pending frame in index order, skipping gaps.
func (q *sequencer) flush() []queued {
	if len(q.pending) == 0 {
		return nil
	}

	indexes := make([]int, 0, len(q.pending))
	for i := range q.pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	released := make([]queued, 0, len(indexes))
	for _, i := range indexes {
		released = append(released, q.pending[i])
		delete(q.pending, i)
	}
	q.next = indexes[len(indexes)-1] + 1
	return released
}

// buffered returns the number of frames waiting for a gap to fill.
func (q *sequencer) buffered() int {
	return len(q.pending)
}
