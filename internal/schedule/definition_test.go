package schedule

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		minutes int
		wantErr bool
	}{
		{"08:00", "08:00:00", 800, false},
		{"23:59:59", "23:59:59", 2359, false},
		{" 7:05 ", "07:05:00", 705, false},
		{"00:01", "00:01:00", 1, false},
		{"24:00", "", 0, true},
		{"12:60", "", 0, true},
		{"12", "", 0, true},
		{"ab:cd", "", 0, true},
		{"12:00:00:00", "", 0, true},
		{"", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
			assert.Equal(t, tt.minutes, c.Minutes())
		})
	}
}

func TestDefinitionJSON(t *testing.T) {
	def := Definition{
		WorkDays: []int{1, 2},
		Windows:  []Window{{Day: AllDays, Start: MustClock("08:30"), End: MustClock("17:00")}},
		Holidays: []Holiday{{Name: "x", Start: day(2024, 5, 1), End: day(2024, 5, 1)}},
	}
	b, err := json.Marshal(def)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"start":"08:30:00"`)

	var back Definition
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, def.Windows, back.Windows)
	assert.True(t, def.Holidays[0].Start.Equal(back.Holidays[0].Start))
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "Mon 08:00:00-12:00:00", Window{Day: 1, Start: MustClock("08:00"), End: MustClock("12:00")}.String())
	assert.Equal(t, "all 08:00:00-12:00:00", Window{Day: AllDays, Start: MustClock("08:00"), End: MustClock("12:00")}.String())
}
