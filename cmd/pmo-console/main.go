package main

import (
	"fmt"
	"os"
	"os/user"

	"pmo-bot/commands"
	"pmo-bot/config"
	"pmo-bot/console"
	"pmo-bot/models"
	"pmo-bot/store"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pmo-console: %v\n", err)
		os.Exit(1)
	}

	opts := []commands.Option{commands.WithGenericReplies(cfg.Bot.GenericReplies)}
	if cfg.Bot.Seed != 0 {
		opts = append(opts, commands.WithSeed(cfg.Bot.Seed))
	}
	engine := commands.NewEngine(store.NewEntities(), opts...)

	program := tea.NewProgram(console.NewModel(engine, localIdentity()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pmo-console failed: %v\n", err)
		os.Exit(1)
	}
}

func localIdentity() models.Identity {
	if name := os.Getenv("PMO_CONSOLE_USER"); name != "" {
		return models.Identity{ID: name, Name: name}
	}
	if u, err := user.Current(); err == nil {
		name := u.Name
		if name == "" {
			name = u.Username
		}
		return models.Identity{ID: u.Username, Name: name}
	}
	return models.Identity{ID: "console", Name: "Console User"}
}
