package fullgc

import (
	"context"

	"github.com/itstack-org/shenandoah-go/internal/refproc"
)

// runMark implements §4.2, Phase 1: reuse the concurrent marker in STW
// mode. The last-resort collection ignores heuristics and forces reference
// processing and class unloading unless the tuning knobs explicitly
// disable them.
func (d *Driver) runMark(ctx context.Context) {
	d.Marker.SetProcessReferences(d.Config.ForceProcessReferences)
	d.Marker.SetUnloadClasses(d.Config.ForceUnloadClasses)

	d.RefProc.EnableDiscovery()
	d.RefProc.SetupPolicy(refproc.SoftRefPolicy{
		Name:             d.Config.SoftRefPolicyName,
		ClearAllSoftRefs: d.Config.ClearAllSoftRefs,
	})
	d.RefProc.SetActiveMTDegree(d.Pool.Size())

	d.Marker.UpdateRoots("full-gc-mark")
	d.Marker.MarkRoots("full-gc-mark")
	// The drain runs detached from ctx's cancellation: Phases 2-4 treat every
	// unmarked object as dead, so stopping the drain early would discard
	// reachable objects.
	if err := d.Marker.FinishMarkFromRoots(context.WithoutCancel(ctx), true); err != nil {
		d.Log.Error("full gc: mark drain failed", "error", err)
	}

	// Swap bitmaps: what was "next" is now the authoritative "complete"
	// bitmap Phase 2+ consult to enumerate live objects.
	d.H.SwapMarkBitmaps()
}
