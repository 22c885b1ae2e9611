package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testRawPostings = `[
  {"title": "Python Developer", "company": "Acme", "location": "Remote", "posted_date": "today", "url": "https://a.example/1", "source": "linkedin"},
  {"title": "Senior Python Developer", "company": "Globex", "location": "Austin", "posted_date": "2 days ago", "url": "https://a.example/2", "source": "indeed"},
  {"title": "Java Developer", "company": "Initech", "location": "Remote", "posted_date": "1 day ago", "url": "https://a.example/3", "source": "indeed"},
  {"title": "Python Developer", "company": "Umbrella", "location": "Remote", "posted_date": "30 days ago", "url": "https://a.example/4", "source": "indeed"}
]`

// resetFlags restores every flag in the tree to its default, since cobra
// commands are package globals shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI in-process and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o644))
	return path
}

func writeTestConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	return writeTestFile(t, dir, "settings.yaml", `
preferences:
  job_titles: [Python Developer]
  locations: [Remote]
  max_age_hours: 72
  sites_to_scrape: [linkedin, indeed]
`+extra)
}
