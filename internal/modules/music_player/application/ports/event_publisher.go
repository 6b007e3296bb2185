package ports

import "github.com/sglre6355/tagilla/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber delivers published events to handlers.
type EventSubscriber interface {
	// Subscribe registers handler for every event and returns a function
	// that removes it.
	Subscribe(handler func(domain.Event)) (unsubscribe func())
}
