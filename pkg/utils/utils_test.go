package utils

import (
	"errors"
	"testing"
	"time"

	"ai-hedge-fund/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTickers(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{name: "comma separated", args: []string{"aapl,MSFT, googl"}, want: []string{"AAPL", "MSFT", "GOOGL"}},
		{name: "multiple args and duplicates", args: []string{"AAPL", "aapl", "0700.HK"}, want: []string{"AAPL", "0700.HK"}},
		{name: "index symbol", args: []string{"^VIX"}, want: []string{"^VIX"}},
		{name: "empty", args: []string{" , "}, wantErr: true},
		{name: "bad characters", args: []string{"AAPL;DROP"}, wantErr: true},
		{name: "too long", args: []string{"ABCDEFGHIJKLMNOPQ"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTickers(tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDates(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", FormatDate(d))

	_, err = ParseDate("03/01/2024")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	a := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 31, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, DaysBetween(a, b))
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, 1.23, RoundTo(1.2345, 2))
	assert.Equal(t, 0.2, Clamp(0.5, 0.02, 0.2))
	assert.Equal(t, 3.0, Deref((*float64)(nil), 3.0))
	assert.Equal(t, "+2.5%", FormatPercentage(2.5))
}
