// Package releasedates derives licence start and hard-stop dates from
// sentence dates and the working-day calendar.
package releasedates

import (
	"cloud.google.com/go/civil"

	"licences/internal/workingdays"
)

// DefaultHardStopWorkingDays is how many working days before the licence
// start date the hard-stop cut-off falls.
const DefaultHardStopWorkingDays = 2

// Service answers release date questions.
type Service struct {
	calendar     *workingdays.Calendar
	hardStopDays int
}

// Option configures Service.
type Option func(*Service)

// WithHardStopWorkingDays overrides the hard-stop lead time when positive.
func WithHardStopWorkingDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.hardStopDays = n
		}
	}
}

func New(calendar *workingdays.Calendar, opts ...Option) *Service {
	s := &Service{calendar: calendar, hardStopDays: DefaultHardStopWorkingDays}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar exposes the underlying working-day calendar.
func (s *Service) Calendar() *workingdays.Calendar { return s.calendar }

// LicenceStartDate is the actual release date when known, otherwise the
// release date moved back to the closest working day.
func (s *Service) LicenceStartDate(actualReleaseDate, releaseDate *civil.Date) *civil.Date {
	if actualReleaseDate != nil {
		d := *actualReleaseDate
		return &d
	}
	if releaseDate == nil {
		return nil
	}
	d := s.calendar.OnOrBefore(*releaseDate)
	return &d
}

// HardStopDate is the cut-off after which an unfinished licence is timed out.
func (s *Service) HardStopDate(licenceStartDate civil.Date) civil.Date {
	return s.calendar.WorkingDaysBefore(licenceStartDate, s.hardStopDays)
}

// InHardStopPeriod reports whether today lies between the hard-stop date and
// the licence start date, both inclusive.
func (s *Service) InHardStopPeriod(licenceStartDate *civil.Date, today civil.Date) bool {
	if licenceStartDate == nil {
		return false
	}
	return !today.Before(s.HardStopDate(*licenceStartDate)) && !today.After(*licenceStartDate)
}

// HardStopReached reports whether the cut-off for licenceStartDate is today or earlier.
func (s *Service) HardStopReached(licenceStartDate *civil.Date, today civil.Date) bool {
	if licenceStartDate == nil {
		return false
	}
	return !s.HardStopDate(*licenceStartDate).After(today)
}

// IsWorkingDay reports whether batch work bound to working days may run on d.
func (s *Service) IsWorkingDay(d civil.Date) bool {
	return s.calendar.IsWorkingDay(d)
}
