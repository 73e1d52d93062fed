// Package workingdays answers working-day questions over the England and
// Wales bank holiday calendar.
package workingdays

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

//go:embed bank_holidays.yaml
var defaultCalendar []byte

const division = "england-and-wales"

// Calendar knows which days are bank holidays.
type Calendar struct {
	holidays mapset.Set[civil.Date]
}

// Parse reads a calendar document: a map of division name to a list of dates.
func Parse(doc []byte) (*Calendar, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("parse bank holidays: %w", err)
	}
	dates, ok := raw[division]
	if !ok {
		return nil, fmt.Errorf("bank holidays: no %s division", division)
	}
	holidays := mapset.NewSetWithSize[civil.Date](len(dates))
	for _, s := range dates {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("bank holidays: %w", err)
		}
		holidays.Add(d)
	}
	return &Calendar{holidays: holidays}, nil
}

// Default returns the calendar bundled with the binary.
func Default() *Calendar {
	c, err := Parse(defaultCalendar)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a calendar from path, or returns Default when path is empty.
func Load(path string) (*Calendar, error) {
	if path == "" {
		return Default(), nil
	}
	doc, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("read bank holidays: %w", err)
	}
	return Parse(doc)
}

// IsBankHoliday reports whether d is a bank holiday.
func (c *Calendar) IsBankHoliday(d civil.Date) bool {
	return c.holidays.Contains(d)
}

// IsWorkingDay reports whether d is neither a weekend nor a bank holiday.
func (c *Calendar) IsWorkingDay(d civil.Date) bool {
	switch d.In(time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsBankHoliday(d)
}

// OnOrBefore returns d when it is a working day, otherwise the closest
// earlier working day.
func (c *Calendar) OnOrBefore(d civil.Date) civil.Date {
	for !c.IsWorkingDay(d) {
		d = d.AddDays(-1)
	}
	return d
}

// WorkingDaysBefore returns the date n working days before d.
func (c *Calendar) WorkingDaysBefore(d civil.Date, n int) civil.Date {
	for n > 0 {
		d = d.AddDays(-1)
		if c.IsWorkingDay(d) {
			n--
		}
	}
	return d
}

// WorkingDaysAfter returns the date n working days after d.
func (c *Calendar) WorkingDaysAfter(d civil.Date, n int) civil.Date {
	for n > 0 {
		d = d.AddDays(1)
		if c.IsWorkingDay(d) {
			n--
		}
	}
	return d
}
