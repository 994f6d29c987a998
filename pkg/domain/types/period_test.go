package types_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriod_StartDate(t *testing.T) {
	tests := []struct {
		name   string
		period types.Period
		today  time.Time
		want   time.Time
	}{
		{
			name:   "weekly on wednesday goes to monday of previous week",
			period: types.PeriodWeekly,
			today:  date(2026, time.October, 14),
			want:   date(2026, time.October, 5),
		},
		{
			name:   "weekly on monday",
			period: types.PeriodWeekly,
			today:  date(2026, time.October, 12),
			want:   date(2026, time.October, 5),
		},
		{
			name:   "weekly on sunday",
			period: types.PeriodWeekly,
			today:  date(2026, time.October, 18),
			want:   date(2026, time.October, 5),
		},
		{
			name:   "monthly mid month",
			period: types.PeriodMonthly,
			today:  date(2026, time.October, 14),
			want:   date(2026, time.September, 1),
		},
		{
			name:   "monthly in january wraps year",
			period: types.PeriodMonthly,
			today:  date(2026, time.January, 31),
			want:   date(2025, time.December, 1),
		},
		{
			name:   "monthly on march 31",
			period: types.PeriodMonthly,
			today:  date(2026, time.March, 31),
			want:   date(2026, time.February, 1),
		},
		{
			name:   "quarterly in Q1 wraps to Q4 of previous year",
			period: types.PeriodQuarterly,
			today:  date(2026, time.February, 10),
			want:   date(2025, time.October, 1),
		},
		{
			name:   "quarterly in Q4",
			period: types.PeriodQuarterly,
			today:  date(2026, time.October, 14),
			want:   date(2026, time.July, 1),
		},
		{
			name:   "quarterly in Q2",
			period: types.PeriodQuarterly,
			today:  date(2026, time.April, 1),
			want:   date(2026, time.January, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.period.StartDate(tt.today)
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}

	t.Run("time of day is dropped", func(t *testing.T) {
		got, err := types.PeriodMonthly.StartDate(time.Date(2026, time.May, 20, 23, 59, 0, 0, time.UTC))
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(date(2026, time.April, 1))
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := types.Period("yearly").StartDate(date(2026, time.May, 1))
		gt.Error(t, err)
	})
}

func TestPeriod_StartDate_MonthlyIsAlwaysFirstOfPreviousMonth(t *testing.T) {
	day := date(2024, time.January, 1)
	for i := 0; i < 3*366; i++ {
		got, err := types.PeriodMonthly.StartDate(day)
		gt.NoError(t, err).Required()
		gt.Number(t, got.Day()).Equal(1)

		prev := day.AddDate(0, 0, -day.Day()+1).AddDate(0, -1, 0)
		gt.Value(t, got).Equal(prev)
		day = day.AddDate(0, 0, 1)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Period
		wantErr bool
	}{
		{name: "weekly", input: "weekly", want: types.PeriodWeekly},
		{name: "capitalized", input: "Monthly", want: types.PeriodMonthly},
		{name: "padded", input: " quarterly ", want: types.PeriodQuarterly},
		{name: "unknown", input: "daily", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParsePeriod(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestPeriod_Label(t *testing.T) {
	gt.String(t, types.PeriodWeekly.Label()).Equal("Weekly")
	gt.String(t, types.PeriodQuarterly.Label()).Equal("Quarterly")
}
