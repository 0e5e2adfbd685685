package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override the SQLite database path"`
	Store   string `long:"store" description:"Storage backend: sqlite | redis"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// TrackCommand — record a job posting, merging with any stored record.
type TrackCommand struct {
	URL       string   `long:"url" description:"Job posting URL (required)"`
	Title     string   `long:"title" description:"Job title"`
	Company   string   `long:"company" description:"Company name"`
	Location  string   `long:"location" description:"Job location"`
	PageTitle string   `long:"page-title" description:"Browser page title, used to fill a missing title or company"`
	Status    string   `long:"status" description:"interested | applied | interviewing | offer | rejected"`
	Notes     string   `long:"notes" description:"Free-form notes"`
	Tags      []string `long:"tag" description:"Tag (repeatable); replaces stored tags"`

	globals *GlobalFlags
	version string
}

// CheckCommand — report whether a URL is already tracked.
type CheckCommand struct {
	URL string `long:"url" description:"URL to check (required)"`

	globals *GlobalFlags
	version string
}

// KeyCommand — print the canonical URL, source and job key for a URL.
type KeyCommand struct {
	URL     string `long:"url" description:"URL to resolve (required)"`
	Title   string `long:"title" description:"Job title, used when the URL carries no job ID"`
	Company string `long:"company" description:"Company name, used when the URL carries no job ID"`

	globals *GlobalFlags
	version string
}

// ListCommand — list tracked jobs with filters.
type ListCommand struct {
	Status string `long:"status" description:"Only jobs with this status"`
	Source string `long:"source" description:"Only jobs from this source (e.g., greenhouse)"`
	Query  string `long:"query" description:"Substring of company, title, location or notes"`
	Sort   string `long:"sort" description:"updated_at | created_at | company | title | status" default:"updated_at"`
	Desc   bool   `long:"desc" description:"Sort descending"`
	Limit  int    `long:"limit" description:"Maximum results (0 for all)" default:"0"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// ShowCommand — print one tracked job.
type ShowCommand struct {
	Key    string `long:"key" description:"Job key (required)"`
	Format string `long:"format" description:"Output format: full | url | canonical | json" default:"full"`

	globals *GlobalFlags
	version string
}

// SetStatusCommand — move a job to a new status.
type SetStatusCommand struct {
	Key          string `long:"key" description:"Job key (required)"`
	Status       string `long:"status" description:"New status"`
	ClearApplied bool   `long:"clear-applied" description:"Remove the recorded applied date"`

	globals *GlobalFlags
	version string
}

// DeleteCommand — remove a tracked job.
type DeleteCommand struct {
	Key string `long:"key" description:"Job key (required)"`

	globals *GlobalFlags
	version string
}

// ExportCommand — write tracked jobs as CSV.
type ExportCommand struct {
	Out    string   `long:"out" description:"Output file (default stdout)"`
	Status []string `long:"status" description:"Only jobs with this status (repeatable)"`

	globals *GlobalFlags
	version string
}

// SettingsCommand — show or change dashboard settings.
type SettingsCommand struct {
	Theme       string   `long:"theme" description:"light | dark"`
	Colors      []string `long:"color" description:"Status colour as status=value (repeatable)"`
	ResetColors bool     `long:"reset-colors" description:"Drop all saved status colours"`

	globals *GlobalFlags
	version string
}

// SummaryCommand — show job counts and storage details.
type SummaryCommand struct {
	globals *GlobalFlags
	version string
}

// PurgeCommand — delete ALL jobtrack data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}
