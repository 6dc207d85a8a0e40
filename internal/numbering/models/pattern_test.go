package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func april(year int) time.Time {
	return time.Date(year, 4, 15, 10, 0, 0, 0, time.UTC)
}

func TestAllocateSequential(t *testing.T) {
	counter := NumberPattern{ResetInterval: ResetYearly, NextNumber: 1}

	for want := 1; want <= 5; want++ {
		seq, period := counter.Allocate(april(2026), 1, 1)
		assert.Equal(t, want, seq)
		assert.Equal(t, 2026, period.Year)
		assert.Equal(t, "2026", period.Key)
	}
	assert.Equal(t, 6, counter.NextNumber)
}

func TestAllocateIncrementBy(t *testing.T) {
	counter := NumberPattern{ResetInterval: ResetNever, NextNumber: 10}

	seq, period := counter.Allocate(april(2026), 10, 5)
	assert.Equal(t, 10, seq)
	assert.Equal(t, 15, counter.NextNumber)
	assert.Empty(t, period.Key)
}

func TestAllocateYearlyReset(t *testing.T) {
	counter := NumberPattern{
		ResetInterval: ResetYearly,
		NextNumber:    41,
		CurrentYear:   2025,
		CurrentMonth:  12,
	}

	seq, period := counter.Allocate(april(2026), 1, 1)
	assert.Equal(t, 1, seq, "year rollover restarts from the starting number")
	assert.Equal(t, "2026", period.Key)
	assert.Equal(t, 2026, counter.CurrentYear)

	seq, _ = counter.Allocate(april(2026), 1, 1)
	assert.Equal(t, 2, seq, "same year keeps counting")
}

func TestAllocateMonthlyReset(t *testing.T) {
	counter := NumberPattern{
		ResetInterval: ResetMonthly,
		NextNumber:    99,
		CurrentYear:   2026,
		CurrentMonth:  3,
	}

	seq, period := counter.Allocate(april(2026), 1, 1)
	assert.Equal(t, 1, seq)
	assert.Equal(t, "202604", period.Key)
	assert.Equal(t, 4, counter.CurrentMonth)
}

func TestAllocateNeverResets(t *testing.T) {
	counter := NumberPattern{
		ResetInterval: ResetNever,
		NextNumber:    500,
		CurrentYear:   1999,
	}

	seq, _ := counter.Allocate(april(2026), 1, 1)
	assert.Equal(t, 500, seq)
}

func TestAllocateNeverIssuesBelowStart(t *testing.T) {
	// Fresh rows may be seeded with NextNumber 0.
	counter := NumberPattern{ResetInterval: ResetYearly}

	seq, _ := counter.Allocate(april(2026), 100, 1)
	assert.Equal(t, 100, seq)
	assert.Equal(t, 101, counter.NextNumber)
}

func TestFirstAllocationDoesNotReset(t *testing.T) {
	// CurrentYear zero means the counter has never served; the stored
	// NextNumber must be honored, not reset.
	counter := NumberPattern{ResetInterval: ResetYearly, NextNumber: 7}

	seq, _ := counter.Allocate(april(2026), 1, 1)
	assert.Equal(t, 7, seq)
}
