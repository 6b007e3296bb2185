package playback

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
	"golang.org/x/sync/singleflight"
)

// Factory builds a coordinator for a guild that has none. It must not call
// Start, the registry does that once the coordinator is installed.
type Factory func(ctx context.Context) (*Coordinator, error)

// Registry maps guilds to their live coordinators. At most one coordinator
// exists per guild, concurrent creations for the same guild are collapsed
// into a single factory call.
type Registry struct {
	mu      sync.RWMutex
	players map[snowflake.ID]*Coordinator
	group   singleflight.Group
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		players: make(map[snowflake.ID]*Coordinator),
	}
}

// Get returns the live coordinator for guildID, or nil.
func (r *Registry) Get(guildID snowflake.ID) *Coordinator {
	r.mu.RLock()
	c := r.players[guildID]
	r.mu.RUnlock()

	if c == nil || c.IsDestroyed() {
		return nil
	}
	return c
}

// GetOrCreate returns the live coordinator for guildID, creating and
// starting one with factory if none exists. If the previous coordinator is
// still being destroyed, the factory runs only after its teardown is done.
func (r *Registry) GetOrCreate(
	ctx context.Context,
	guildID snowflake.ID,
	factory Factory,
) (*Coordinator, error) {
	if c := r.Get(guildID); c != nil {
		return c, nil
	}

	v, err, _ := r.group.Do(guildID.String(), func() (any, error) {
		r.mu.RLock()
		old := r.players[guildID]
		r.mu.RUnlock()

		if old != nil {
			if !old.IsDestroyed() {
				return old, nil
			}
			// The old player still owns the guild's voice connection until
			// its teardown returns.
			select {
			case <-old.Done():
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		c, err := factory(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.players[guildID] = c
		r.mu.Unlock()

		c.Start()
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Coordinator), nil
}

// Remove deletes the entry for guildID if it still refers to c.
func (r *Registry) Remove(guildID snowflake.ID, c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.players[guildID] == c {
		delete(r.players, guildID)
	}
}

// Release is an onDestroy hook that removes c from the registry.
func (r *Registry) Release(c *Coordinator) {
	r.Remove(c.GuildID(), c)
}

// List returns every live coordinator.
func (r *Registry) List() []*Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Coordinator, 0, len(r.players))
	for _, c := range r.players {
		result = append(result, c)
	}
	return result
}

// Shutdown destroys every coordinator and waits for their teardown.
func (r *Registry) Shutdown(ctx context.Context) error {
	coordinators := r.List()

	var wg sync.WaitGroup
	for _, c := range coordinators {
		wg.Add(1)
		go func(c *Coordinator) {
			defer wg.Done()
			c.Destroy(domain.DestroyReasonShutdown)
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
