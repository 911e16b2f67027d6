package services

import (
	"cmp"
	"context"
	"crypto/sha256"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"encoding/hex"
	"fmt"
	"log"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Upper bound on origins fetched concurrently from an external provider.
const matrixFetchConcurrency = 5

// BuildProviderMatrix fills a travel matrix from an external distance provider,
// one origin row at a time. Batched lookups are preferred when the provider
// supports them; the first failing row cancels the others.
func BuildProviderMatrix(
	ctx context.Context,
	stops []domain.Stop,
	provider ports.DistanceProvider,
) (_ *TravelMatrix, err error) {
	defer obs.Time(ctx, "matrix.BuildProviderMatrix")(&err)

	if provider == nil {
		return nil, fmt.Errorf("build provider matrix: provider is nil")
	}

	n := len(stops)
	ids := make([]int, n)
	rows := make([][]int, n)
	for i, s := range stops {
		ids[i] = s.ID
		rows[i] = make([]int, n)
	}

	mp, hasMatrix := provider.(ports.DistanceMatrixProvider)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(matrixFetchConcurrency)

	for i := range stops {
		g.Go(func() error {
			origin := stops[i]

			targets := make([]domain.Coordinates, 0, n-1)
			cols := make([]int, 0, n-1)
			for j, t := range stops {
				if j != i {
					targets = append(targets, t.Location)
					cols = append(cols, j)
				}
			}
			if len(targets) == 0 {
				return nil
			}

			var res []ports.DistanceResult
			if hasMatrix {
				var e error
				res, e = mp.GetDistances(ctx, origin.Location, targets)
				if e != nil {
					return fmt.Errorf("build provider matrix: get distances from stop %d: %w", origin.ID, e)
				}
				if len(res) != len(targets) {
					return fmt.Errorf("build provider matrix: stop %d: got %d results for %d targets", origin.ID, len(res), len(targets))
				}
			} else {
				res = make([]ports.DistanceResult, 0, len(targets))
				for k, t := range targets {
					r, e := provider.GetDistance(ctx, origin.Location, t)
					if e != nil {
						return fmt.Errorf("build provider matrix: get distance from stop %d to stop %d: %w", origin.ID, stops[cols[k]].ID, e)
					}
					res = append(res, r)
				}
			}

			// Each goroutine owns exactly one row.
			for k, j := range cols {
				rows[i][j] = res[k].DurationSeconds
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewMatrix(ids, rows)
}

// MatrixKey identifies a travel matrix by its source and the ids and locations of its stops.
// Visit order does not affect the key.
func MatrixKey(source string, stops []domain.Stop) string {
	sorted := slices.Clone(stops)
	slices.SortFunc(sorted, func(a, b domain.Stop) int { return cmp.Compare(a.ID, b.ID) })

	h := sha256.New()
	h.Write([]byte(source))
	for _, s := range sorted {
		h.Write([]byte("|" + strconv.Itoa(s.ID) + "@" + s.Location.Key()))
	}
	return source + ":" + hex.EncodeToString(h.Sum(nil))
}

// LoadOrBuildMatrix returns a cached matrix when available, otherwise builds and stores one.
// Cache failures are logged and never fail the request.
func LoadOrBuildMatrix(
	ctx context.Context,
	cache ports.MatrixCache,
	key string,
	build func() (*TravelMatrix, error),
) (*TravelMatrix, error) {
	if cache != nil {
		snap, ok, err := cache.GetMatrix(ctx, key)
		switch {
		case err != nil:
			log.Printf("matrix cache read failed: key=%s err=%v", key, err)
		case ok:
			m, err := NewMatrix(snap.IDs, snap.Durations)
			if err == nil {
				return m, nil
			}
			log.Printf("matrix cache entry rejected: key=%s err=%v", key, err)
		}
	}

	m, err := build()
	if err != nil {
		return nil, err
	}

	if cache != nil {
		snap := ports.MatrixSnapshot{IDs: m.IDs(), Durations: m.Rows()}
		if err := cache.PutMatrix(ctx, key, snap); err != nil {
			log.Printf("matrix cache write failed: key=%s err=%v", key, err)
		}
	}

	return m, nil
}
