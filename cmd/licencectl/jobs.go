package main

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List and trigger lifecycle jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a job now and wait for the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRun,
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsRunCmd)
}

type jobList struct {
	Jobs []string `json:"jobs"`
}

type jobRun struct {
	Job      string         `json:"job"`
	Selected int            `json:"selected"`
	Counts   map[string]int `json:"counts,omitempty"`
	Skipped  string         `json:"skipped,omitempty"`
}

func runJobsList(_ *cobra.Command, _ []string) error {
	var resp jobList
	if err := newClient().getJSON("/jobs", &resp); err != nil {
		return err
	}
	if done, err := printStructured(resp); done {
		return err
	}
	rows := make([][]string, 0, len(resp.Jobs))
	for _, name := range resp.Jobs {
		rows = append(rows, []string{name})
	}
	printTable([]string{"Job"}, rows)
	return nil
}

func runJobsRun(_ *cobra.Command, args []string) error {
	var resp jobRun
	path := "/jobs/" + url.PathEscape(args[0]) + "/run"
	if err := newClient().postJSON(path, nil, &resp); err != nil {
		return err
	}
	if done, err := printStructured(resp); done {
		return err
	}
	printTable(
		[]string{"Job", "Selected", "Counts", "Skipped"},
		[][]string{{resp.Job, strconv.Itoa(resp.Selected), formatCounts(resp.Counts), orDash(resp.Skipped)}},
	)
	return nil
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, ",")
}
