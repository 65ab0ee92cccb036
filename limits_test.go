package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckLimitsZeroValueIsUnbounded(t *testing.T) {
	err := checkLimits(100000, 100000, 4, Limits{})
	assert.NoError(t, err)
}

func TestCheckLimitsRejectsWidth(t *testing.T) {
	err := checkLimits(2000, 10, 1, Limits{MaxWidth: 1000})
	assert.True(t, IsKind(err, KindTooWide))
}

func TestCheckLimitsRejectsHeight(t *testing.T) {
	err := checkLimits(10, 2000, 1, Limits{MaxHeight: 1000})
	assert.True(t, IsKind(err, KindTooTall))
}

func TestCheckLimitsRejectsPixelCount(t *testing.T) {
	err := checkLimits(1000, 1000, 1, Limits{MaxPixels: 10})
	assert.True(t, IsKind(err, KindTooManyPixels))
}

func TestCheckLimitsRejectsMemoryBudget(t *testing.T) {
	err := checkLimits(1000, 1000, 4, Limits{MaxMemoryBytes: 100})
	assert.True(t, IsKind(err, KindTooMuchMemory))
}

func TestCheckLimitsDetectsOverflowBeforeWrapping(t *testing.T) {
	err := checkLimits(1<<31, 1<<31, 1<<20, Limits{MaxMemoryBytes: 1 << 62})
	assert.True(t, IsKind(err, KindTooMuchMemory))
}

func TestCancelPollsOnlyWhenStopSet(t *testing.T) {
	assert.NoError(t, checkCancel(nil))
	calls := 0
	stop := func() bool { calls++; return false }
	assert.NoError(t, checkCancel(stop))
	assert.Equal(t, 1, calls)
}

func TestCancelReturnsCancelledKind(t *testing.T) {
	err := checkCancel(func() bool { return true })
	assert.True(t, IsKind(err, KindCancelled))
}

func TestCancelForAllocSkipsSmallAllocations(t *testing.T) {
	calls := 0
	stop := func() bool { calls++; return true }
	assert.NoError(t, checkCancelForAlloc(stop, 1024))
	assert.Equal(t, 0, calls)
	err := checkCancelForAlloc(stop, largeAllocThreshold+1)
	assert.True(t, IsKind(err, KindCancelled))
}
