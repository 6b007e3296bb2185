package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tagilla/internal/modules/music_player/domain"
)

const (
	// Discord allows at most 25 choices of at most 100 characters.
	maxAutocompleteChoices = 25
	maxChoiceLength        = 100

	autocompleteTimeout = 2500 * time.Millisecond
	minQueryLength      = 2
)

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	trackLoader *usecases.TrackLoaderService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(trackLoader *usecases.TrackLoaderService) *AutocompleteHandler {
	return &AutocompleteHandler{
		trackLoader: trackLoader,
	}
}

// HandleInteraction answers autocomplete interactions for the module's commands.
func (h *AutocompleteHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}
	if i.ApplicationCommandData().Name != "play" {
		return
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" && opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: h.playChoices(ctx, query),
		},
	})
	if err != nil {
		slog.Debug("failed to respond to autocomplete", "guild", i.GuildID, "error", err)
	}
}

// playChoices returns search suggestions for a partial /play query. URLs are
// offered back unchanged because they already identify a single track.
func (h *AutocompleteHandler) playChoices(
	ctx context.Context,
	query string,
) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)

	// Don't search for very short queries
	if len([]rune(query)) < minQueryLength {
		return choices
	}

	if domain.NewSearchQuery(query).IsURL {
		return append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(query, maxChoiceLength),
			Value: query,
		})
	}

	output, err := h.trackLoader.Search(ctx, usecases.SearchInput{
		Query: query,
		Limit: maxAutocompleteChoices,
	})
	if err != nil {
		slog.Debug("failed to search tracks for autocomplete", "error", err)
		return choices
	}

	for _, track := range output.Tracks {
		if track.URI == "" || len(track.URI) > maxChoiceLength {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("🎵 %s - %s", track.Title, track.Artist), maxChoiceLength),
			Value: track.URI,
		})
	}

	return choices
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
