package cli

import (
	"fmt"

	"github.com/runnerr0/jobtrack/internal/identity"
	"github.com/runnerr0/jobtrack/internal/tracker"
)

// Execute implements the go-flags Commander interface for KeyCommand.
// It never opens the store.
func (c *KeyCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for key command")
	}

	svc := tracker.NewService(nil, nil, tracker.Options{})
	id, err := svc.Identify(c.URL, identity.Metadata{Title: c.Title, Company: c.Company})
	if err != nil {
		return err
	}

	if c.globals.JSON {
		return printJSON(id)
	}

	fmt.Printf("Canonical: %s\n", id.CanonicalURL)
	fmt.Printf("Source:    %s\n", id.Source)
	fmt.Printf("Key:       %s\n", id.JobKey)
	return nil
}
