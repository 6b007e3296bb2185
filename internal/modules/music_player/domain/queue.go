package domain

import "sync"

// Queue is a thread-safe FIFO of tracks waiting to be played.
// Tracks are removed when they start playing.
type Queue struct {
	mu     sync.Mutex
	tracks []*Track
	ready  chan struct{}
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		tracks: make([]*Track, 0),
		ready:  make(chan struct{}, 1),
	}
}

// Push appends a track and returns its 1-based position in the queue.
func (q *Queue) Push(track *Track) int {
	q.mu.Lock()
	q.tracks = append(q.tracks, track)
	position := len(q.tracks)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}

	return position
}

// PopFront removes and returns the oldest track.
// The boolean is false when the queue is empty.
func (q *Queue) PopFront() (*Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return nil, false
	}

	track := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return track, true
}

// Ready returns a channel that receives a value after a Push.
// A receive does not guarantee the queue is non-empty, callers must PopFront
// and wait again on failure.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of waiting tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Snapshot returns a copy of the first limit tracks in order.
// A non-positive limit returns every track.
func (q *Queue) Snapshot(limit int) []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tracks)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]*Track, n)
	copy(result, q.tracks[:n])
	return result
}

// Drain empties the queue and returns the removed tracks.
func (q *Queue) Drain() []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.tracks
	q.tracks = make([]*Track, 0)
	return drained
}
