package engine

import (
	"context"
	"fmt"
)

// Mode inspects or changes the operating mode. Switching online probes
// the network first and fails with the mode package's unreachable error
// when nothing answers. The Prepare list pins installed versions on the
// way offline so they survive without repositories.
func (e *Engine) Mode(ctx context.Context, req *ModeRequest) (*ModeResult, error) {
	res := &ModeResult{}

	switch {
	case req.Auto:
		det, err := e.modes.Detect(ctx)
		if err != nil {
			return nil, err
		}
		res.Detection = &det
		e.log.Info("mode auto-detected", "mode", det.Mode, "reason", det.Reason)
	case req.Set == "offline":
		if len(req.Prepare) > 0 {
			missing, err := e.modes.PrepareOffline(ctx, req.Prepare)
			if err != nil {
				return nil, err
			}
			res.NotPinned = missing
		}
		if err := e.modes.SetOffline(); err != nil {
			return nil, err
		}
	case req.Set == "online":
		if err := e.modes.SetOnline(ctx); err != nil {
			return nil, err
		}
	case req.Set != "":
		return nil, fmt.Errorf("unknown mode %q (use offline or online)", req.Set)
	}

	res.Status = e.modes.Status(ctx)
	return res, nil
}
