package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var caseloadCmd = &cobra.Command{
	Use:   "caseload",
	Short: "Show reconciled caseloads",
}

var caseloadStaffCmd = &cobra.Command{
	Use:   "staff <staffIdentifier>",
	Short: "Caseload of a probation practitioner",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errInvalidArg("staffIdentifier", args[0])
		}
		return showCaseload("/caseload/staff/" + strconv.FormatInt(id, 10))
	},
}

var caseloadTeamsCmd = &cobra.Command{
	Use:   "teams <code>[,<code>...]",
	Short: "Caseload of one or more probation teams",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return showCaseload("/caseload/teams?code=" + url.QueryEscape(strings.Join(args, ",")))
	},
}

var caseloadPrisonsCmd = &cobra.Command{
	Use:   "prisons <code>[,<code>...]",
	Short: "Prisoners due for release from one or more prisons",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return showCaseload("/caseload/prisons?code=" + url.QueryEscape(strings.Join(args, ",")))
	},
}

func init() {
	caseloadCmd.AddCommand(caseloadStaffCmd)
	caseloadCmd.AddCommand(caseloadTeamsCmd)
	caseloadCmd.AddCommand(caseloadPrisonsCmd)
}

type caseView struct {
	NomsID           string `json:"nomsId"`
	CRN              string `json:"crn,omitempty"`
	Name             string `json:"name"`
	LicenceID        *int64 `json:"licenceId,omitempty"`
	Kind             string `json:"kind"`
	LicenceType      string `json:"licenceType"`
	LicenceStatus    string `json:"licenceStatus"`
	ReleaseDate      string `json:"releaseDate,omitempty"`
	ReleaseDateLabel string `json:"releaseDateLabel,omitempty"`
	HardStopDate     string `json:"hardStopDate,omitempty"`
	IsReviewNeeded   bool   `json:"isReviewNeeded"`
	Practitioner     struct {
		Name        string `json:"name"`
		Unallocated bool   `json:"unallocated"`
	} `json:"probationPractitioner"`
}

type caseloadList struct {
	Cases []caseView `json:"cases"`
}

func showCaseload(path string) error {
	var resp caseloadList
	if err := newClient().getJSON(path, &resp); err != nil {
		return err
	}
	if done, err := printStructured(resp); done {
		return err
	}
	rows := make([][]string, 0, len(resp.Cases))
	for _, c := range resp.Cases {
		licence := "-"
		if c.LicenceID != nil {
			licence = strconv.FormatInt(*c.LicenceID, 10)
		}
		review := ""
		if c.IsReviewNeeded {
			review = "yes"
		}
		rows = append(rows, []string{
			c.NomsID,
			orDash(c.CRN),
			c.Name,
			licence,
			c.Kind,
			c.LicenceStatus,
			orDash(c.ReleaseDate),
			orDash(c.ReleaseDateLabel),
			orDash(c.HardStopDate),
			orDash(review),
			c.Practitioner.Name,
		})
	}
	printTable([]string{"Noms ID", "CRN", "Name", "Licence", "Kind", "Status", "Release", "Label", "Hard stop", "Review", "Practitioner"}, rows)
	return nil
}
