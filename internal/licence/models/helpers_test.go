package models

import (
	"time"

	"cloud.google.com/go/civil"
)

var (
	testCom = Staff{ID: 1, Kind: StaffKindCom, Username: "COM_USER", FirstName: "Carla", LastName: "Officer"}
	testCA  = Staff{ID: 2, Kind: StaffKindPrisonUser, Username: "CA_USER", FirstName: "Pat", LastName: "Admin"}
	testDM  = Actor{Username: "DM_USER", FirstName: "Dee", LastName: "Maker"}
	t0      = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
)

func mustDate(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *civil.Date {
	d := mustDate(s)
	return &d
}

func newParams(p Payload) NewLicenceParams {
	creator := testCom
	if p.Kind().CreatorKind() == StaffKindPrisonUser {
		creator = testCA
	}
	return NewLicenceParams{
		Payload:  p,
		Offender: Offender{NomsID: "A1234AA", BookingID: 1, Forename: "Bob", Surname: "Smith"},
		Dates: SentenceDates{
			ConditionalReleaseDate: datePtr("2024-04-29"),
			LicenceExpiryDate:      datePtr("2025-04-28"),
			PostRecallReleaseDate:  datePtr("2024-05-10"),
		},
		CreatedBy:      creator,
		ResponsibleCom: testCom,
		At:             t0,
	}
}

func mustNew(p Payload) Licence {
	l, err := NewLicence(newParams(p))
	if err != nil {
		panic(err)
	}
	l.ID = 10
	return l
}

func withStatus(l Licence, s Status) Licence {
	out, err := Rehydrate(l.Base, s, l.Payload())
	if err != nil {
		panic(err)
	}
	return out
}
