// Package headless drives a scene.Host on the software backend for a fixed
// number of frames and summarizes what was drawn.
package headless

import (
	"fmt"

	"render-toolkit/gpu"
	"render-toolkit/gpu/softgpu"
	"render-toolkit/graphics"
	"render-toolkit/logging"
	"render-toolkit/scene"
)

type Options struct {
	Frames int
	// ResetEvery runs a device loss and restore before every Nth frame.
	ResetEvery int
}

// Report sums the recorded work over all frames.
type Report struct {
	Frames     int
	Skipped    int
	Resets     int
	DrawCalls  int
	Primitives int
	Clears     int
	Locks      int
	Violations int
	// LiveObjects is the object count of the device after the last frame.
	LiveObjects int
}

func (r Report) String() string {
	return fmt.Sprintf("frames=%d skipped=%d resets=%d draws=%d primitives=%d clears=%d locks=%d violations=%d live=%d",
		r.Frames, r.Skipped, r.Resets, r.DrawCalls, r.Primitives, r.Clears, r.Locks, r.Violations, r.LiveObjects)
}

// Run renders opts.Frames frames. backend must be the backend manager was
// created with.
func Run(backend *softgpu.Backend, manager *graphics.Manager, host *scene.Host, opts Options) (Report, error) {
	log := logging.For("headless")
	var r Report
	for i := 1; i <= opts.Frames; i++ {
		if opts.ResetEvery > 0 && i%opts.ResetEvery == 0 {
			if err := manager.Reset(); err != nil {
				return r, fmt.Errorf("reset before frame %d: %w", i, err)
			}
			r.Resets++
		}

		dev := backend.Current()
		if dev == nil {
			return r, fmt.Errorf("frame %d: no device", i)
		}
		ctx := dev.Context()
		ctx.ResetRecording()
		if !host.Render() {
			r.Skipped++
			continue
		}
		r.Frames++
		for _, c := range ctx.Calls() {
			r.DrawCalls++
			r.Primitives += primitives(c.Topology, c.Count)
		}
		st := ctx.Stats()
		r.Clears += st.ColorClears + st.DepthClears
		r.Locks += st.Locks
		for _, err := range ctx.Violations() {
			log.Warn("contract violation", "frame", i, "err", err)
			r.Violations++
		}
	}
	if dev := backend.Current(); dev != nil {
		r.LiveObjects = dev.Live()
	}
	return r, nil
}

func primitives(t gpu.Topology, count int) int {
	switch t {
	case gpu.TopologyTriangleList:
		return count / 3
	case gpu.TopologyTriangleStrip:
		return max(count-2, 0)
	case gpu.TopologyLineList:
		return count / 2
	case gpu.TopologyLineStrip:
		return max(count-1, 0)
	}
	return count
}
