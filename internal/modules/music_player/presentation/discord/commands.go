package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tagilla/internal/modules/music_player/application/playback"
)

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Plays a song from a search query or URL",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "query",
					Description:  "The song title or URL to play",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "stop",
			Description: "Stops the music, clears the queue, and disconnects",
		},
		{
			Name:        "skip",
			Description: "Skips the currently playing song",
		},
		{
			Name:        "volume",
			Description: "Adjusts the playback volume (0-200%)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "The desired volume percentage",
					Required:    true,
					MinValue:    floatPtr(0),
					MaxValue:    playback.MaxVolumePercent,
				},
			},
		},
		{
			Name:        "queue",
			Description: "Shows the current song queue",
		},
		{
			Name:        "pause",
			Description: "Pauses the current song",
		},
		{
			Name:        "resume",
			Description: "Resumes the paused song",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
