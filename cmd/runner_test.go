package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
	mocks "github.com/desertthunder/spx/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Error("expected configPath to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("configPath = %q, want config.toml", runner.configPath)
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err != nil {
			t.Fatalf("writeJSON() error = %v", err)
		}
		if got := output.String(); got != "{\"tracks\":3}\n" {
			t.Errorf("output = %q", got)
		}

		output.Reset()
		if err := runner.writeJSON(map[string]int{"tracks": 3}, true); err != nil {
			t.Fatalf("writeJSON() error = %v", err)
		}
		if !strings.Contains(output.String(), "  \"tracks\": 3") {
			t.Errorf("expected indented output, got %q", output.String())
		}
	})

	t.Run("writeJSON with failing writer", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &mocks.FWriter{}})

		if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err == nil {
			t.Error("expected an error from the failing writer")
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("found %d playlists\n", 2); err != nil {
			t.Fatalf("writePlain() error = %v", err)
		}
		if output.String() != "found 2 playlists\n" {
			t.Errorf("output = %q", output.String())
		}
	})
}

func TestSpotifyClientRequiresSession(t *testing.T) {
	runner := NewRunner(RunnerOpts{})

	_, err := runner.spotifyClient(t.Context())
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("error = %v, want ErrNotAuthenticated", err)
	}
}

func TestBatchSummary(t *testing.T) {
	result := &models.BatchResult{
		Jobs: []models.JobResult{
			{PlaylistID: "a", PlaylistName: "Alpha", Status: models.StatusDone, TrackCount: 4, Files: []string{"out/Alpha.csv"}},
			{PlaylistID: "b", Status: models.StatusFailed, Err: errors.New("boom")},
		},
	}

	summary := batchSummary(result, tasks.BatchOpts{Format: formatter.FormatCSV})

	if summary.Format != "csv" {
		t.Errorf("Format = %q, want csv", summary.Format)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 || summary.Cancelled != 0 {
		t.Errorf("counts = %d/%d/%d", summary.Succeeded, summary.Failed, summary.Cancelled)
	}
	if summary.Jobs[1].Error != "boom" {
		t.Errorf("job error = %q", summary.Jobs[1].Error)
	}
}

func TestExportCommandArguments(t *testing.T) {
	cmd := exportCommand(NewRunner(RunnerOpts{}))

	var ids []string
	var format string
	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		ids = cmd.StringArgs("ids")
		format = cmd.String("format")
		return nil
	}

	if err := cmd.Run(t.Context(), []string{"export", "--format", "json", "id1", "id2"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ids) != 2 || ids[0] != "id1" || ids[1] != "id2" {
		t.Errorf("ids = %v, want [id1 id2]", ids)
	}
	if format != "json" {
		t.Errorf("format = %q, want json", format)
	}
}

func TestJobName(t *testing.T) {
	if got := jobName(models.JobResult{PlaylistID: "id", PlaylistName: "Name"}); got != "Name" {
		t.Errorf("jobName() = %q, want Name", got)
	}
	if got := jobName(models.JobResult{PlaylistID: "id"}); got != "id" {
		t.Errorf("jobName() = %q, want id", got)
	}
}
