package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/config"
	"github.com/runnerr0/jobtrack/internal/storage"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// settingsJSON is the JSON output structure for the settings command.
type settingsJSON struct {
	Theme        storage.Theme             `json:"theme"`
	StatusColors map[storage.Status]string `json:"status_colors"`
	Overrides    map[storage.Status]string `json:"overrides"`
}

// Execute implements the go-flags Commander interface for SettingsCommand.
func (c *SettingsCommand) Execute(args []string) error {
	return withSession(c.globals, c.executeWithSession)
}

// executeWithSession shows or updates settings against a provided session
// (used by tests). With no change flags it only prints.
func (c *SettingsCommand) executeWithSession(sess *session) error {
	ctx := context.Background()

	settings, err := sess.store.GetSettings(ctx)
	if err != nil {
		return tracker.StoreError("could not load settings", err)
	}

	changed, err := c.apply(settings)
	if err != nil {
		return err
	}
	if changed {
		if err := sess.store.SaveSettings(ctx, settings); err != nil {
			return tracker.StoreError("could not save settings", err)
		}
		sess.logger.Info("settings saved",
			zap.String("theme", string(settings.Theme)),
			zap.Int("status_colors", len(settings.StatusColors)),
		)
	}

	if c.globals.JSON {
		overrides := settings.StatusColors
		if overrides == nil {
			overrides = map[storage.Status]string{}
		}
		return printJSON(settingsJSON{
			Theme:        settings.Theme,
			StatusColors: config.StatusColors(settings),
			Overrides:    overrides,
		})
	}

	if changed {
		fmt.Println("Settings saved.")
		fmt.Println()
	}
	fmt.Printf("Theme:  %s\n", settings.Theme)
	fmt.Println("Status colours:")
	colors := config.StatusColors(settings)
	for _, st := range storage.Statuses {
		marker := ""
		if _, ok := settings.StatusColors[st]; ok {
			marker = " (custom)"
		}
		fmt.Printf("  %-14s %s%s\n", st, colors[st], marker)
	}
	return nil
}

// apply folds the change flags into settings and reports whether anything
// was requested.
func (c *SettingsCommand) apply(settings *storage.Settings) (bool, error) {
	changed := false

	if c.Theme != "" {
		theme, err := storage.ParseTheme(c.Theme)
		if err != nil {
			return false, apperr.InvalidInput("invalid --theme", err)
		}
		settings.Theme = theme
		changed = true
	}

	if c.ResetColors {
		settings.StatusColors = map[storage.Status]string{}
		changed = true
	}

	for _, kv := range c.Colors {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return false, apperr.InvalidInput(fmt.Sprintf("--color %q must be status=value", kv), nil)
		}
		st, err := storage.ParseStatus(name)
		if err != nil {
			return false, apperr.InvalidInput("invalid --color status", err)
		}
		value = strings.TrimSpace(value)
		if err := config.ValidateColor(value); err != nil {
			return false, apperr.InvalidInput("invalid --color value", err)
		}
		if settings.StatusColors == nil {
			settings.StatusColors = map[storage.Status]string{}
		}
		settings.StatusColors[st] = value
		changed = true
	}

	return changed, nil
}
