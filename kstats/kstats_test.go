package kstats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ukern/abi"
	"ukern/kstats"
)

func TestCompile(t *testing.T) {
}

func TestSummaries(t *testing.T) {
	st := kstats.NewStats()
	for i := 1; i <= 100; i++ {
		st.Record(abi.SYS_WRITE, time.Duration(i)*time.Microsecond)
	}
	st.Record(abi.SYS_OPEN, 5*time.Microsecond)
	st.Kill()
	st.Error()
	st.Error()

	assert.Equal(t, 100, st.Count(abi.SYS_WRITE))
	assert.Equal(t, 0, st.Count(abi.SYS_READ))
	nkill, nerror := st.Counts()
	assert.Equal(t, uint64(1), nkill)
	assert.Equal(t, uint64(2), nerror)

	ss := st.Summaries()
	assert.Equal(t, 2, len(ss))
	assert.Equal(t, abi.SYS_OPEN, ss[0].Sysno)
	assert.Equal(t, 1, ss[0].N)
	assert.InDelta(t, 5.0, ss[0].P99, 0.001)
	assert.Equal(t, abi.SYS_WRITE, ss[1].Sysno)
	assert.InDelta(t, 50.5, ss[1].Mean, 0.001)
	assert.True(t, ss[1].P99 >= 98 && ss[1].P99 <= 100)
	assert.Contains(t, st.String(), "killed 1 errors 2")
}
