// Package licencetest builds licences in a given state for tests.
package licencetest

import (
	"time"

	"cloud.google.com/go/civil"

	"licences/internal/licence/models"
)

// Date parses a yyyy-mm-dd literal and panics on malformed input.
func Date(s string) *civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

var (
	Com = models.Staff{
		ID: 1, Kind: models.StaffKindCom, Username: "COM_USER", Email: "com@probation.example",
		FirstName: "Carla", LastName: "Officer", StaffIdentifier: 2000,
	}
	PrisonUser = models.Staff{
		ID: 2, Kind: models.StaffKindPrisonUser, Username: "CA_USER", Email: "ca@prison.example",
		FirstName: "Pat", LastName: "Admin",
	}
	Approver = models.Actor{Username: "DECISION_MAKER", FirstName: "Dee", LastName: "Maker"}
)

// Created is the creation time used by New unless overridden.
var Created = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Option tweaks the creation parameters.
type Option func(*models.NewLicenceParams)

func WithPayload(p models.Payload) Option {
	return func(n *models.NewLicenceParams) { n.Payload = p }
}

func WithDates(d models.SentenceDates) Option {
	return func(n *models.NewLicenceParams) { n.Dates = d }
}

func WithBooking(nomsID string, bookingID int64) Option {
	return func(n *models.NewLicenceParams) {
		n.Offender.NomsID = nomsID
		n.Offender.BookingID = bookingID
	}
}

func WithCreatedAt(t time.Time) Option {
	return func(n *models.NewLicenceParams) { n.At = t }
}

// New returns an unsaved IN_PROGRESS CRD licence with CRD 2024-04-29.
func New(opts ...Option) models.Licence {
	p := models.NewLicenceParams{
		Payload: models.CRD{},
		Offender: models.Offender{
			NomsID: "A1234AA", BookingID: 54321, CRN: "X12345",
			Forename: "Bob", Surname: "Smith", DateOfBirth: Date("1980-01-02"),
		},
		Dates: models.SentenceDates{
			ConditionalReleaseDate: Date("2024-04-29"),
			LicenceStartDate:       Date("2024-04-29"),
			LicenceExpiryDate:      Date("2025-04-28"),
		},
		Prison:         models.Prison{Code: "MDI", Description: "Moorland (HMP & YOI)"},
		Probation:      models.ProbationTeam{AreaCode: "N01", TeamCode: "TEAM1", TeamDescription: "Team one"},
		CreatedBy:      Com,
		ResponsibleCom: Com,
		At:             Created,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.Payload.Kind().CreatorKind() == models.StaffKindPrisonUser {
		p.CreatedBy = PrisonUser
	}
	l, err := models.NewLicence(p)
	if err != nil {
		panic(err)
	}
	return l
}

// WithStatus returns l rehydrated with the given id and status, as a store would load it.
func WithStatus(l models.Licence, id int64, status models.Status) models.Licence {
	l.ID = id
	out, err := models.Rehydrate(l.Base, status, l.Payload())
	if err != nil {
		panic(err)
	}
	return out
}

// Approved walks a fresh licence through submit and approve.
func Approved(id int64, opts ...Option) models.Licence {
	l := New(opts...)
	l.ID = id
	submitter := Com
	if l.Kind().CreatorKind() == models.StaffKindPrisonUser {
		submitter = PrisonUser
	}
	l, err := models.Submit(l, submitter, Created.Add(time.Hour))
	if err != nil {
		panic(err)
	}
	l, err = models.Approve(l, Approver, Created.Add(2*time.Hour))
	if err != nil {
		panic(err)
	}
	return l
}
