package releasedates

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"licences/internal/workingdays"
)

func d(s string) *civil.Date {
	v, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &v
}

func TestLicenceStartDate(t *testing.T) {
	s := New(workingdays.Default())

	assert.Equal(t, d("2024-04-24"), s.LicenceStartDate(d("2024-04-24"), d("2024-04-29")), "actual release date wins")
	assert.Equal(t, d("2024-04-29"), s.LicenceStartDate(nil, d("2024-04-29")))
	assert.Equal(t, d("2024-04-26"), s.LicenceStartDate(nil, d("2024-04-28")), "Sunday moves to Friday")
	assert.Nil(t, s.LicenceStartDate(nil, nil))
}

func TestHardStop(t *testing.T) {
	s := New(workingdays.Default())
	lsd := d("2024-04-29")

	assert.Equal(t, *d("2024-04-25"), s.HardStopDate(*lsd))

	assert.False(t, s.InHardStopPeriod(lsd, *d("2024-04-24")))
	assert.True(t, s.InHardStopPeriod(lsd, *d("2024-04-25")))
	assert.True(t, s.InHardStopPeriod(lsd, *d("2024-04-29")))
	assert.False(t, s.InHardStopPeriod(lsd, *d("2024-04-30")))
	assert.False(t, s.InHardStopPeriod(nil, *d("2024-04-29")))

	assert.False(t, s.HardStopReached(lsd, *d("2024-04-24")))
	assert.True(t, s.HardStopReached(lsd, *d("2024-04-25")))
	assert.True(t, s.HardStopReached(lsd, *d("2024-05-10")))

	wider := New(workingdays.Default(), WithHardStopWorkingDays(5))
	assert.Equal(t, *d("2024-04-22"), wider.HardStopDate(*lsd))
}
