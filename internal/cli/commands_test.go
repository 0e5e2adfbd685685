package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/storage"
)

const (
	leverURL      = "https://jobs.lever.co/acme/abcd-1234-ef56?lever-source=LinkedIn&utm_source=x"
	leverKey      = "lever_abcd-1234-ef56"
	greenhouseURL = "https://boards.greenhouse.io/globex/jobs/4567890"
)

// track records a job through the track command and returns the stored job.
func track(t *testing.T, sess *session, cmd TrackCommand) *storage.Job {
	t.Helper()
	cmd.globals = &GlobalFlags{JSON: true}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithSession(sess)
	})
	require.NoError(t, err)

	var job storage.Job
	require.NoError(t, json.Unmarshal([]byte(output), &job), "output should be valid JSON: %s", output)
	return &job
}

func TestTrackCommand_HumanOutput(t *testing.T) {
	sess := newTestSession(t)

	cmd := &TrackCommand{
		URL:     leverURL,
		Title:   "Senior Engineer",
		Company: "Acme",
		Status:  "applied",
		Tags:    []string{"remote", "go"},
		globals: &GlobalFlags{},
	}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithSession(sess)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Tracked lever_abcd-1234-ef56 (applied)")
	assert.Contains(t, output, "Title:     Senior Engineer")
	assert.Contains(t, output, "Company:   Acme")
	assert.Contains(t, output, "Source:    lever")
	assert.Contains(t, output, "URL:       https://jobs.lever.co/acme/abcd-1234-ef56")
	assert.Contains(t, output, "Tags:      go, remote")
	assert.Contains(t, output, "Applied:")
}

func TestTrackCommand_JSONAndMerge(t *testing.T) {
	sess := newTestSession(t)

	first := track(t, sess, TrackCommand{URL: leverURL, Title: "Engineer", Notes: "referral"})
	assert.Equal(t, leverKey, first.JobKey)
	assert.Equal(t, storage.StatusInterested, first.Status)
	assert.Equal(t, "https://jobs.lever.co/acme/abcd-1234-ef56", first.CanonicalURL)

	second := track(t, sess, TrackCommand{URL: leverURL + "&utm_medium=email", Company: "Acme"})
	assert.Equal(t, leverKey, second.JobKey)
	assert.Equal(t, "Engineer", second.Title)
	assert.Equal(t, "Acme", second.Company)
	assert.Equal(t, "referral", second.Notes)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestTrackCommand_PageTitleAutofill(t *testing.T) {
	sess := newTestSession(t)

	job := track(t, sess, TrackCommand{
		URL:       "https://www.linkedin.com/jobs/view/3912345678/",
		PageTitle: "Initech hiring Platform Engineer in Austin, TX | LinkedIn",
	})
	assert.Equal(t, "linkedin_3912345678", job.JobKey)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "Initech", job.Company)
}

func TestTrackCommand_InvalidStatus(t *testing.T) {
	sess := newTestSession(t)

	cmd := &TrackCommand{URL: leverURL, Status: "ghosted", globals: &GlobalFlags{}}
	err := cmd.executeWithSession(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "ghosted")
}

func TestCheckCommand(t *testing.T) {
	sess := newTestSession(t)

	notTracked := &CheckCommand{URL: leverURL, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, notTracked.executeWithSession(sess))
	})
	assert.Equal(t, "Not tracked.\n", output)

	track(t, sess, TrackCommand{URL: leverURL, Title: "Engineer", Company: "Acme"})

	revisit := &CheckCommand{URL: "https://jobs.lever.co/acme/abcd-1234-ef56/?gclid=zzz", globals: &GlobalFlags{}}
	output = captureOutput(t, func() {
		require.NoError(t, revisit.executeWithSession(sess))
	})
	assert.Contains(t, output, "Already tracked as lever_abcd-1234-ef56 (interested)")
	assert.Contains(t, output, "First seen:")

	job, found, err := sess.store.Get(context.Background(), leverKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotNil(t, job.LastSeenAt)
}

func TestCheckCommand_JSON(t *testing.T) {
	sess := newTestSession(t)

	cmd := &CheckCommand{URL: greenhouseURL + "?utm_source=x", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})

	var result checkJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.False(t, result.Tracked)
	assert.Equal(t, greenhouseURL, result.CanonicalURL)
	assert.Nil(t, result.Job)
}

func seedForList(t *testing.T, sess *session) {
	t.Helper()
	track(t, sess, TrackCommand{URL: leverURL, Title: "Backend Engineer", Company: "Acme", Status: "applied"})
	track(t, sess, TrackCommand{URL: greenhouseURL, Title: "Data Scientist", Company: "Globex", Location: "Berlin"})
	track(t, sess, TrackCommand{URL: "https://careers.example.org/openings/77", Title: "Go Developer", Company: "Example"})
}

func TestListCommand_Filters(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	tests := []struct {
		name string
		cmd  ListCommand
		args []string
		want []string
	}{
		{"all by company", ListCommand{Sort: "company"}, nil, []string{"Backend Engineer", "Go Developer", "Data Scientist"}},
		{"status", ListCommand{Status: "APPLIED", Sort: "updated_at"}, nil, []string{"Backend Engineer"}},
		{"source", ListCommand{Source: "Greenhouse", Sort: "updated_at"}, nil, []string{"Data Scientist"}},
		{"query flag", ListCommand{Query: "berlin", Sort: "updated_at"}, nil, []string{"Data Scientist"}},
		{"positional query", ListCommand{Sort: "updated_at"}, []string{"go", "developer"}, []string{"Go Developer"}},
		{"title desc with limit", ListCommand{Sort: "title", Desc: true, Limit: 2}, nil, []string{"Go Developer", "Data Scientist"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := tc.cmd
			cmd.globals = &GlobalFlags{JSON: true}

			output := captureOutput(t, func() {
				require.NoError(t, cmd.executeWithSession(sess, tc.args))
			})

			var result jsonListOutput
			require.NoError(t, json.Unmarshal([]byte(output), &result))
			assert.Equal(t, len(tc.want), result.Count)

			titles := make([]string, len(result.Jobs))
			for i, j := range result.Jobs {
				titles[i] = j.Title
			}
			assert.Equal(t, tc.want, titles)
		})
	}
}

func TestListCommand_HumanOutput(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	cmd := &ListCommand{Sort: "company", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess, nil))
	})

	assert.Contains(t, output, "Found 3 jobs")
	assert.Contains(t, output, "1. Backend Engineer @ Acme")
	assert.Contains(t, output, "   https://jobs.lever.co/acme/abcd-1234-ef56")
	assert.Contains(t, output, "applied · lever")
	assert.Contains(t, output, "2. Go Developer @ Example")
	assert.Contains(t, output, "3. Data Scientist @ Globex")
}

func TestListCommand_Empty(t *testing.T) {
	sess := newTestSession(t)

	cmd := &ListCommand{Sort: "updated_at", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess, nil))
	})
	assert.Equal(t, "No jobs found.\n", output)

	cmd.globals.JSON = true
	output = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess, nil))
	})
	assert.JSONEq(t, `{"count":0,"jobs":[]}`, output)
}

func TestListCommand_InvalidFlags(t *testing.T) {
	sess := newTestSession(t)

	for _, cmd := range []*ListCommand{
		{Status: "ghosted", Sort: "updated_at"},
		{Sort: "salary"},
		{Sort: "updated_at", Limit: -1},
	} {
		cmd.globals = &GlobalFlags{}
		err := cmd.executeWithSession(sess, nil)
		require.Error(t, err)
		assert.True(t, apperr.IsInvalidInput(err), "got %v", err)
	}
}

func TestShowCommand_Formats(t *testing.T) {
	sess := newTestSession(t)
	track(t, sess, TrackCommand{URL: leverURL, Title: "Engineer", Company: "Acme", Notes: "ask about visa"})

	tests := []struct {
		format string
		check  func(t *testing.T, output string)
	}{
		{"url", func(t *testing.T, output string) {
			assert.Equal(t, leverURL+"\n", output)
		}},
		{"canonical", func(t *testing.T, output string) {
			assert.Equal(t, "https://jobs.lever.co/acme/abcd-1234-ef56\n", output)
		}},
		{"json", func(t *testing.T, output string) {
			var job storage.Job
			require.NoError(t, json.Unmarshal([]byte(output), &job))
			assert.Equal(t, leverKey, job.JobKey)
			assert.Equal(t, "ask about visa", job.Notes)
		}},
		{"full", func(t *testing.T, output string) {
			assert.True(t, strings.HasPrefix(output, leverKey+"\n"))
			assert.Contains(t, output, "Status:     interested")
			assert.Contains(t, output, "Location:   -")
			assert.Contains(t, output, "Applied:    -")
			assert.Contains(t, output, "--- Notes ---\nask about visa")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			cmd := &ShowCommand{Key: leverKey, Format: tc.format, globals: &GlobalFlags{}}
			output := captureOutput(t, func() {
				require.NoError(t, cmd.executeWithSession(sess))
			})
			tc.check(t, output)
		})
	}
}

func TestShowCommand_Errors(t *testing.T) {
	sess := newTestSession(t)

	missing := &ShowCommand{Key: "lever_nope", Format: "full", globals: &GlobalFlags{}}
	err := missing.executeWithSession(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	track(t, sess, TrackCommand{URL: leverURL})
	badFormat := &ShowCommand{Key: leverKey, Format: "yaml", globals: &GlobalFlags{}}
	err = badFormat.executeWithSession(sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown --format")
}

func TestSetStatusCommand(t *testing.T) {
	sess := newTestSession(t)
	track(t, sess, TrackCommand{URL: leverURL, Title: "Engineer"})

	apply := &SetStatusCommand{Key: leverKey, Status: "applied", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, apply.executeWithSession(sess))
	})
	assert.Contains(t, output, "Updated lever_abcd-1234-ef56 (applied)")
	assert.Contains(t, output, "Applied:")

	job, _, err := sess.store.Get(context.Background(), leverKey)
	require.NoError(t, err)
	require.NotNil(t, job.AppliedAt)

	clearCmd := &SetStatusCommand{Key: leverKey, Status: "interviewing", ClearApplied: true, globals: &GlobalFlags{JSON: true}}
	output = captureOutput(t, func() {
		require.NoError(t, clearCmd.executeWithSession(sess))
	})

	var updated storage.Job
	require.NoError(t, json.Unmarshal([]byte(output), &updated))
	assert.Equal(t, storage.StatusInterviewing, updated.Status)
	assert.Nil(t, updated.AppliedAt)
}

func TestSetStatusCommand_NotFound(t *testing.T) {
	sess := newTestSession(t)

	cmd := &SetStatusCommand{Key: "hash_0000000000000000", Status: "offer", globals: &GlobalFlags{}}
	err := cmd.executeWithSession(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteCommand(t *testing.T) {
	sess := newTestSession(t)
	track(t, sess, TrackCommand{URL: leverURL})

	cmd := &DeleteCommand{Key: leverKey, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})
	assert.Equal(t, "Deleted lever_abcd-1234-ef56\n", output)

	err := cmd.executeWithSession(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	cmd.globals.JSON = true
	output = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})
	assert.JSONEq(t, `{"job_key":"lever_abcd-1234-ef56","deleted":false}`, output)
}

func TestExportCommand_ToFile(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	out := filepath.Join(t.TempDir(), "nested", "jobs.csv")
	cmd := &ExportCommand{Out: out, Status: []string{"interested"}, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})
	assert.Contains(t, output, "Exported 2 jobs to "+out)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "job_key", rows[0][0])
	for _, row := range rows[1:] {
		assert.Equal(t, "interested", row[4])
	}
}

func TestExportCommand_Stdout(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	cmd := &ExportCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})

	rows, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExportCommand_InvalidStatus(t *testing.T) {
	sess := newTestSession(t)

	cmd := &ExportCommand{Status: []string{"ghosted"}, globals: &GlobalFlags{}}
	err := cmd.executeWithSession(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidInput(err))
}

func TestSettingsCommand(t *testing.T) {
	sess := newTestSession(t)

	show := &SettingsCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, show.executeWithSession(sess))
	})
	assert.Contains(t, output, "Theme:  light")
	assert.NotContains(t, output, "Settings saved.")
	assert.NotContains(t, output, "(custom)")

	update := &SettingsCommand{Theme: "Dark", Colors: []string{"offer=gold"}, globals: &GlobalFlags{}}
	output = captureOutput(t, func() {
		require.NoError(t, update.executeWithSession(sess))
	})
	assert.Contains(t, output, "Settings saved.")
	assert.Contains(t, output, "Theme:  dark")
	assert.Contains(t, output, "gold (custom)")

	saved, err := sess.store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeDark, saved.Theme)
	assert.Equal(t, "gold", saved.StatusColors[storage.StatusOffer])

	reset := &SettingsCommand{ResetColors: true, globals: &GlobalFlags{JSON: true}}
	output = captureOutput(t, func() {
		require.NoError(t, reset.executeWithSession(sess))
	})
	var result settingsJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, storage.ThemeDark, result.Theme)
	assert.Empty(t, result.Overrides)
	assert.Len(t, result.StatusColors, len(storage.Statuses))
}

func TestSettingsCommand_InvalidInput(t *testing.T) {
	sess := newTestSession(t)

	for _, cmd := range []*SettingsCommand{
		{Theme: "solarized"},
		{Colors: []string{"offer"}},
		{Colors: []string{"ghosted=red"}},
		{Colors: []string{"offer=#12"}},
	} {
		cmd.globals = &GlobalFlags{}
		err := cmd.executeWithSession(sess)
		require.Error(t, err)
		assert.True(t, apperr.IsInvalidInput(err), "got %v", err)
	}

	saved, err := sess.store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ThemeLight, saved.Theme)
}

func TestSummaryCommand(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	cmd := &SummaryCommand{globals: &GlobalFlags{}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})
	assert.Contains(t, output, "jobtrack Summary")
	assert.Contains(t, output, "Version:       1.0.0")
	assert.Contains(t, output, "Store:         sqlite :memory:")
	assert.Contains(t, output, "Jobs:          3")
	assert.Contains(t, output, "By Status:")
	assert.Contains(t, output, "By Source:")
	assert.Contains(t, output, "lever")

	cmd.globals.JSON = true
	output = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})

	var result summaryJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, int64(3), result.TotalJobs)
	assert.Equal(t, int64(1), result.ByStatus["applied"])
	assert.Equal(t, int64(2), result.ByStatus["interested"])
	assert.Equal(t, int64(0), result.ByStatus["offer"])
	assert.Positive(t, result.SizeBytes)
	assert.NotEmpty(t, result.OldestCreated)
	assert.Len(t, result.BySource, 3)
}

func TestSummaryCommand_Redis(t *testing.T) {
	sess := newRedisTestSession(t)
	track(t, sess, TrackCommand{URL: leverURL, Title: "Engineer"})

	cmd := &SummaryCommand{globals: &GlobalFlags{JSON: true}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})

	var result summaryJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, "redis", result.Backend)
	assert.Equal(t, int64(1), result.TotalJobs)
	assert.Zero(t, result.SizeBytes)
}

func TestPurgeCommand(t *testing.T) {
	sess := newTestSession(t)
	seedForList(t, sess)

	cmd := &PurgeCommand{All: true, Force: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})
	assert.Contains(t, output, "Purged all data")

	stats, err := sess.store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalJobs)
}

func TestPurgeCommand_JSONOutput(t *testing.T) {
	sess := newTestSession(t)

	cmd := &PurgeCommand{All: true, Force: true, globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(sess))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result), "output should be valid JSON: %s", output)
	assert.Equal(t, true, result["purged"])
	assert.Equal(t, "all data deleted", result["message"])
}

func TestPurgeCommand_Confirmation(t *testing.T) {
	old := stdin
	t.Cleanup(func() { stdin = old })

	tests := []struct {
		input   string
		wantErr string
	}{
		{"PURGE\n", ""},
		{"purge\n", "confirmation text did not match"},
		{"", "no input received"},
	}
	for _, tc := range tests {
		stdin = strings.NewReader(tc.input)
		cmd := &PurgeCommand{All: true, globals: &GlobalFlags{}}

		var err error
		output := captureOutput(t, func() {
			err = cmd.confirm()
		})
		assert.Contains(t, output, `Type "PURGE" to confirm`)
		if tc.wantErr == "" {
			assert.NoError(t, err)
		} else {
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		}
	}
}

func TestRunWithArgs_EndToEndSQLite(t *testing.T) {
	cfgPath := writeTestConfig(t, "logging:\n  level: debug\n")
	dir := filepath.Dir(cfgPath)

	var err error
	captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "track", "--url", leverURL, "--title", "Engineer"})
	})
	require.NoError(t, err)

	output := captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "--json", "show", "--key", leverKey})
	})
	require.NoError(t, err)

	var job storage.Job
	require.NoError(t, json.Unmarshal([]byte(output), &job))
	assert.Equal(t, "Engineer", job.Title)

	assert.FileExists(t, filepath.Join(dir, "jobtrack.db"))

	logData, err := os.ReadFile(filepath.Join(dir, "jobtrack.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), `"msg":"job tracked"`)
	assert.Contains(t, string(logData), `"job_key":"lever_abcd-1234-ef56"`)
}

func TestRunWithArgs_DBPathOverride(t *testing.T) {
	cfgPath := writeTestConfig(t, "")
	dbPath := filepath.Join(t.TempDir(), "override.db")

	var err error
	captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "--db-path", dbPath, "track", "--url", greenhouseURL})
	})
	require.NoError(t, err)

	assert.FileExists(t, dbPath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(cfgPath), "jobtrack.db"))
}

func TestRunWithArgs_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("JOBTRACK_REDIS_ADDR", mr.Addr())
	cfgPath := writeTestConfig(t, "")

	var err error
	captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", cfgPath, "--store", "redis", "track", "--url", leverURL})
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("jobtrack:jobs"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(cfgPath), "jobtrack.db"))
}

func TestRunWithArgs_InvalidStore(t *testing.T) {
	cfgPath := writeTestConfig(t, "")

	err := RunWithArgs("test", []string{"--config", cfgPath, "--store", "postgres", "summary"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}
