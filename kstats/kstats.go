// Package kstats keeps per-system-call counts and latencies.
package kstats

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/slices"

	"ukern/abi"
	db "ukern/debug"
)

type Stats struct {
	sync.Mutex
	lats   map[abi.Tsysno][]float64 // microseconds
	nkill  uint64
	nerror uint64
}

type Summary struct {
	Sysno abi.Tsysno
	N     int
	Mean  float64
	P99   float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%-8v n %-6d mean %.1fus p99 %.1fus", s.Sysno, s.N, s.Mean, s.P99)
}

func NewStats() *Stats {
	return &Stats{lats: make(map[abi.Tsysno][]float64)}
}

func (st *Stats) Record(sysno abi.Tsysno, d time.Duration) {
	st.Lock()
	defer st.Unlock()
	st.lats[sysno] = append(st.lats[sysno], float64(d.Nanoseconds())/1000.0)
}

// Kill counts a process terminated for a protocol violation.
func (st *Stats) Kill() {
	st.Lock()
	defer st.Unlock()
	st.nkill += 1
}

// Error counts a call that returned the failure sentinel.
func (st *Stats) Error() {
	st.Lock()
	defer st.Unlock()
	st.nerror += 1
}

func (st *Stats) Counts() (nkill, nerror uint64) {
	st.Lock()
	defer st.Unlock()
	return st.nkill, st.nerror
}

func (st *Stats) Count(sysno abi.Tsysno) int {
	st.Lock()
	defer st.Unlock()
	return len(st.lats[sysno])
}

// Summaries returns one summary per call seen, ordered by call number.
func (st *Stats) Summaries() []Summary {
	st.Lock()
	defer st.Unlock()

	nos := make([]abi.Tsysno, 0, len(st.lats))
	for no := range st.lats {
		nos = append(nos, no)
	}
	slices.Sort(nos)
	ss := make([]Summary, 0, len(nos))
	for _, no := range nos {
		data := st.lats[no]
		mean, err := stats.Mean(data)
		if err != nil {
			db.DPrintf(db.KSTATS, "Error calculating mean %v: %v", no, err)
		}
		p99, err := stats.Percentile(data, 99)
		if err != nil {
			// too few samples for a 99th percentile
			db.DPrintf(db.KSTATS, "percentile 99 %v: %v", no, err)
			p99, _ = stats.Max(data)
		}
		ss = append(ss, Summary{Sysno: no, N: len(data), Mean: mean, P99: p99})
	}
	return ss
}

func (st *Stats) String() string {
	var sb strings.Builder
	for _, s := range st.Summaries() {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	nkill, nerror := st.Counts()
	fmt.Fprintf(&sb, "killed %d errors %d", nkill, nerror)
	return sb.String()
}
