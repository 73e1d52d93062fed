package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Payload holds the fields only meaningful for one licence kind. The set of
// implementations is closed: CRD, HDC, HDCVariation, PRRD, Variation,
// HardStop and TimeServed.
type Payload interface {
	Kind() Kind
	clonePayload() Payload
}

type CRD struct{}

func (CRD) Kind() Kind              { return KindCRD }
func (p CRD) clonePayload() Payload { return p }

// HDC is a home detention curfew licence.
type HDC struct {
	Curfew             Curfew
	MonitoringProvider *ElectronicMonitoringProvider
}

func (HDC) Kind() Kind { return KindHDC }

func (p HDC) clonePayload() Payload {
	p.Curfew = p.Curfew.clone()
	p.MonitoringProvider = p.MonitoringProvider.clone()
	return p
}

// HDCVariation is a variation of an active HDC licence.
type HDCVariation struct {
	VariationDetails
	Curfew Curfew
}

func (HDCVariation) Kind() Kind { return KindHDCVariation }

func (p HDCVariation) clonePayload() Payload {
	p.Curfew = p.Curfew.clone()
	return p
}

// PRRD is a licence for release after recall.
type PRRD struct {
	MonitoringProvider *ElectronicMonitoringProvider
}

func (PRRD) Kind() Kind { return KindPRRD }

func (p PRRD) clonePayload() Payload {
	p.MonitoringProvider = p.MonitoringProvider.clone()
	return p
}

// Variation is a variation of an active non-HDC licence.
type Variation struct {
	VariationDetails
}

func (Variation) Kind() Kind              { return KindVariation }
func (p Variation) clonePayload() Payload { return p }

// HardStop is the licence created by prison staff once the hard-stop cut-off
// has passed without an approved licence.
type HardStop struct {
	Review
}

func (HardStop) Kind() Kind { return KindHardStop }

func (p HardStop) clonePayload() Payload {
	p.Review = p.Review.clone()
	return p
}

// TimeServed is created for offenders released on sentence time served.
type TimeServed struct {
	Review
}

func (TimeServed) Kind() Kind { return KindTimeServed }

func (p TimeServed) clonePayload() Payload {
	p.Review = p.Review.clone()
	return p
}

// VariationDetails links a variation to the licence it varies.
type VariationDetails struct {
	VariationOfID int64
	SpoDiscussion string
	VloDiscussion string
}

// Review tracks the post-release review of hard-stop originated licences.
type Review struct {
	SubstituteOfID *int64
	ReviewDate     *time.Time
}

func (r Review) clone() Review {
	r.SubstituteOfID = clonePtr(r.SubstituteOfID)
	r.ReviewDate = clonePtr(r.ReviewDate)
	return r
}

// Curfew is the curfew data owned by HDC kinds.
type Curfew struct {
	Times          []CurfewTime
	Address        *Address
	FirstNight     *FirstNightCurfew
	TimesUpdatedBy string
	ActualDate     *civil.Date
	EndDate        *civil.Date
}

func (c Curfew) clone() Curfew {
	c.Times = slicesClone(c.Times)
	c.Address = clonePtr(c.Address)
	c.FirstNight = clonePtr(c.FirstNight)
	c.ActualDate = clonePtr(c.ActualDate)
	c.EndDate = clonePtr(c.EndDate)
	return c
}

// CurfewTime is one weekly curfew window, ordered by Sequence.
type CurfewTime struct {
	Sequence  int
	FromDay   time.Weekday
	FromTime  civil.Time
	UntilDay  time.Weekday
	UntilTime civil.Time
}

type FirstNightCurfew struct {
	From  civil.Time
	Until civil.Time
}

type Address struct {
	FirstLine  string
	SecondLine string
	TownOrCity string
	County     string
	Postcode   string
}

// ElectronicMonitoringProvider is owned one-to-one by HDC and PRRD licences.
type ElectronicMonitoringProvider struct {
	IsToBeTaggedForProgramme *bool
	ProgrammeName            string
}

func (p *ElectronicMonitoringProvider) clone() *ElectronicMonitoringProvider {
	if p == nil {
		return nil
	}
	c := *p
	c.IsToBeTaggedForProgramme = clonePtr(p.IsToBeTaggedForProgramme)
	return &c
}
