package workingdays

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDefaultCalendar(t *testing.T) {
	c := Default()

	assert.True(t, c.IsBankHoliday(date("2024-04-01")), "Easter Monday")
	assert.False(t, c.IsWorkingDay(date("2024-04-01")))
	assert.False(t, c.IsWorkingDay(date("2024-04-27")), "Saturday")
	assert.False(t, c.IsWorkingDay(date("2024-04-28")), "Sunday")
	assert.True(t, c.IsWorkingDay(date("2024-04-29")))
}

func TestOnOrBefore(t *testing.T) {
	c := Default()

	assert.Equal(t, date("2024-04-26"), c.OnOrBefore(date("2024-04-28")))
	assert.Equal(t, date("2024-04-29"), c.OnOrBefore(date("2024-04-29")))
	// Easter 2024: Good Friday 29 March and Easter Monday 1 April.
	assert.Equal(t, date("2024-03-28"), c.OnOrBefore(date("2024-04-01")))
}

func TestWorkingDaysBeforeAndAfter(t *testing.T) {
	c := Default()

	assert.Equal(t, date("2024-04-25"), c.WorkingDaysBefore(date("2024-04-29"), 2))
	assert.Equal(t, date("2024-03-27"), c.WorkingDaysBefore(date("2024-04-02"), 2))
	assert.Equal(t, date("2024-04-02"), c.WorkingDaysAfter(date("2024-03-28"), 1))
	assert.Equal(t, date("2024-04-29"), c.WorkingDaysBefore(date("2024-04-29"), 0))
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte("england-and-wales:\n  - 2030-01-01\n"))
	require.NoError(t, err)
	assert.True(t, c.IsBankHoliday(date("2030-01-01")))

	_, err = Parse([]byte("scotland:\n  - 2030-01-01\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("england-and-wales:\n  - not-a-date\n"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.True(t, c.IsBankHoliday(date("2025-12-25")))
}
