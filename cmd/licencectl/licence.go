package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var licenceCmd = &cobra.Command{
	Use:     "licence",
	Aliases: []string{"licences"},
	Short:   "Inspect and override licences",
}

var licenceGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a licence",
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenceGet,
}

var licenceEventsCmd = &cobra.Command{
	Use:   "events <id>",
	Short: "Show the event history of a licence",
	Args:  cobra.ExactArgs(1),
	RunE:  runLicenceEvents,
}

var overrideReason string

var licenceOverrideCmd = &cobra.Command{
	Use:   "override <id> <status>",
	Short: "Force a licence into a status (admin)",
	Args:  cobra.ExactArgs(2),
	RunE:  runLicenceOverride,
}

func init() {
	licenceOverrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Reason recorded on the audit trail (required)")
	_ = licenceOverrideCmd.MarkFlagRequired("reason")

	licenceCmd.AddCommand(licenceGetCmd)
	licenceCmd.AddCommand(licenceEventsCmd)
	licenceCmd.AddCommand(licenceOverrideCmd)
}

type licenceView struct {
	ID             int64  `json:"id"`
	Kind           string `json:"kind"`
	Status         string `json:"statusCode"`
	TypeCode       string `json:"typeCode"`
	LicenceVersion string `json:"licenceVersion"`
	NomsID         string `json:"nomsId"`
	BookingID      int64  `json:"bookingId"`
	CRN            string `json:"crn,omitempty"`
	PrisonCode     string `json:"prisonCode,omitempty"`
	TeamCode       string `json:"probationTeamCode,omitempty"`
	Dates          struct {
		ConditionalReleaseDate string `json:"conditionalReleaseDate,omitempty"`
		ActualReleaseDate      string `json:"actualReleaseDate,omitempty"`
		LicenceStartDate       string `json:"licenceStartDate,omitempty"`
		LicenceExpiryDate      string `json:"licenceExpiryDate,omitempty"`
	} `json:"dates"`
	VersionOfID *int64 `json:"versionOfId,omitempty"`
}

type eventView struct {
	Type        string    `json:"eventType"`
	Username    string    `json:"username"`
	Description string    `json:"eventDescription"`
	At          time.Time `json:"eventTime"`
}

func parseLicenceID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidArg("licence id", s)
	}
	return id, nil
}

func errInvalidArg(name, value string) error {
	return fmt.Errorf("invalid %s: %q", name, value)
}

func runLicenceGet(_ *cobra.Command, args []string) error {
	id, err := parseLicenceID(args[0])
	if err != nil {
		return err
	}
	var resp licenceView
	if err := newClient().getJSON(fmt.Sprintf("/licences/%d", id), &resp); err != nil {
		return err
	}
	return printLicence(resp)
}

func runLicenceOverride(_ *cobra.Command, args []string) error {
	id, err := parseLicenceID(args[0])
	if err != nil {
		return err
	}
	body := map[string]string{"statusCode": args[1], "reason": overrideReason}
	var resp licenceView
	if err := newClient().postJSON(fmt.Sprintf("/licences/%d/status", id), body, &resp); err != nil {
		return err
	}
	return printLicence(resp)
}

func printLicence(l licenceView) error {
	if done, err := printStructured(l); done {
		return err
	}
	versionOf := "-"
	if l.VersionOfID != nil {
		versionOf = strconv.FormatInt(*l.VersionOfID, 10)
	}
	printTable(
		[]string{"ID", "Kind", "Type", "Status", "Version", "Noms ID", "CRD", "LSD", "LED", "Version of"},
		[][]string{{
			strconv.FormatInt(l.ID, 10),
			l.Kind,
			l.TypeCode,
			l.Status,
			l.LicenceVersion,
			l.NomsID,
			orDash(l.Dates.ConditionalReleaseDate),
			orDash(l.Dates.LicenceStartDate),
			orDash(l.Dates.LicenceExpiryDate),
			versionOf,
		}},
	)
	return nil
}

func runLicenceEvents(_ *cobra.Command, args []string) error {
	id, err := parseLicenceID(args[0])
	if err != nil {
		return err
	}
	var events []eventView
	if err := newClient().getJSON(fmt.Sprintf("/licences/%d/events", id), &events); err != nil {
		return err
	}
	if done, err := printStructured(events); done {
		return err
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.At.Format(time.RFC3339), e.Type, orDash(e.Username), e.Description})
	}
	printTable([]string{"Time", "Event", "User", "Description"}, rows)
	return nil
}
