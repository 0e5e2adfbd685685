package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Track     *TrackCommand
	Check     *CheckCommand
	Key       *KeyCommand
	List      *ListCommand
	Show      *ShowCommand
	SetStatus *SetStatusCommand
	Delete    *DeleteCommand
	Export    *ExportCommand
	Settings  *SettingsCommand
	Summary   *SummaryCommand
	Purge     *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "jobtrack"
	parser.LongDescription = "Track job applications and recognise postings you have already seen."

	cmds := &commands{
		Track:     &TrackCommand{globals: &globals, version: version},
		Check:     &CheckCommand{globals: &globals, version: version},
		Key:       &KeyCommand{globals: &globals, version: version},
		List:      &ListCommand{globals: &globals, version: version},
		Show:      &ShowCommand{globals: &globals, version: version},
		SetStatus: &SetStatusCommand{globals: &globals, version: version},
		Delete:    &DeleteCommand{globals: &globals, version: version},
		Export:    &ExportCommand{globals: &globals, version: version},
		Settings:  &SettingsCommand{globals: &globals, version: version},
		Summary:   &SummaryCommand{globals: &globals, version: version},
		Purge:     &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("track", "Track a job posting", "Record a job posting by URL, merging with any job already stored under the same key.", cmds.Track)
	parser.AddCommand("check", "Check whether a URL is tracked", "Look a URL up by its canonical form and record the revisit if it is tracked.", cmds.Check)
	parser.AddCommand("key", "Print the job key for a URL", "Print the canonical URL, source and job key for a URL without touching the store.", cmds.Key)
	parser.AddCommand("list", "List tracked jobs", "List tracked jobs, with optional filters and ordering.", cmds.List)
	parser.AddCommand("show", "Print one tracked job", "Print a tracked job by key.", cmds.Show)
	parser.AddCommand("set-status", "Change a job's status", "Move a tracked job to a new status, or clear its applied date.", cmds.SetStatus)
	parser.AddCommand("delete", "Delete a tracked job", "Delete a tracked job by key.", cmds.Delete)
	parser.AddCommand("export", "Export jobs as CSV", "Write tracked jobs as CSV to a file or stdout.", cmds.Export)
	parser.AddCommand("settings", "Show or change settings", "Show or change the dashboard theme and status colours.", cmds.Settings)
	parser.AddCommand("summary", "Show job counts and storage details", "Show job counts by status and source, and the storage backend in use.", cmds.Summary)
	parser.AddCommand("purge", "Delete ALL jobtrack data", "Delete ALL jobtrack data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the jobtrack CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("jobtrack %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
