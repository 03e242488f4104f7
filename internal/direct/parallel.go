package direct

import (
	"context"
	"runtime"
	"sync"

	"luxera/internal/accel"
	"luxera/internal/errs"
	"luxera/internal/geometry"
	"luxera/internal/photometry"
)

// RunParallel evaluates the same point set as Run but spreads the outer,
// per-point loop across a worker pool sized to GOMAXPROCS. The per-point
// accumulation itself stays sequential over luminaires (preserving
// summation order), so results are bit-identical to Run.
func RunParallel(ctx context.Context, points []geometry.Vector3, normals []geometry.Direction, luminaires []*photometry.Luminaire, occluder *accel.TLAS, settings Settings, rec *errs.Recovery) (Result, error) {
	res := Result{
		Points:    points,
		Normals:   normals,
		ValuesLux: make([]float64, len(points)),
	}
	eps := settings.occlusionEpsilon()

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(points) {
		workers = max(len(points), 1)
	}

	type warnEntry struct{ msg string }
	warnCh := make(chan warnEntry, len(points))
	cancelled := make(chan struct{})
	var once sync.Once

	var wg sync.WaitGroup
	chunk := (len(points) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, len(points))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			localRec := errs.NewRecovery()
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					once.Do(func() { close(cancelled) })
					return
				default:
				}
				res.ValuesLux[i] = evaluatePoint(points[i], normals[i], luminaires, occluder, settings.UseOcclusion, eps, localRec)
			}
			for _, w := range localRec.Warnings() {
				warnCh <- warnEntry{msg: w}
			}
		}(start, end)
	}
	wg.Wait()
	close(warnCh)

	select {
	case <-cancelled:
		return Result{}, errs.ErrCancelled
	default:
	}

	for e := range warnCh {
		rec.Warn("%s", e.msg)
	}
	return res, nil
}
