package fullgc

import (
	"time"

	"github.com/inhies/go-bytesize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats is the GC-tracer side channel's payload: the phase-timing and
// occupancy data §6 says is the only thing exposed to collaborators beyond
// the single entry point.
type Stats struct {
	Cause Cause

	UsedBefore, UsedAfter uintptr
	RegionsTotal          int
	RegionsReclaimed      int
	RegionsSelfCompacted  int

	Phase1, Phase2, Phase3, Phase4 time.Duration
	Total                          time.Duration
}

// printer formats counts with locale-aware thousands separators, used only
// in the human-readable summary below.
var printer = message.NewPrinter(language.English)

// Summary renders a one-line human-readable report, the kind a real
// collector would hand to its tracer/logging side channel.
func (s Stats) Summary() string {
	return printer.Sprintf(
		"cause=%s used %s->%s (%d regions, %d reclaimed, %d self-compacted) total=%s [mark=%s plan=%s adjust=%s compact=%s]",
		s.Cause,
		bytesize.New(float64(s.UsedBefore)),
		bytesize.New(float64(s.UsedAfter)),
		s.RegionsTotal, s.RegionsReclaimed, s.RegionsSelfCompacted,
		s.Total, s.Phase1, s.Phase2, s.Phase3, s.Phase4,
	)
}
