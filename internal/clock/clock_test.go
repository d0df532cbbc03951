package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_SleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManual(start)

	c.Sleep(time.Second)
	c.Advance(2 * time.Second)
	c.Sleep(5 * time.Second)

	assert.Equal(t, start.Add(8*time.Second), c.Now())
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second}, c.Slept())
}
