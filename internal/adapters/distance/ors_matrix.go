package distance

import (
	"bytes"
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrixRow asks the matrix endpoint for one origin against many
// destinations. The result is keyed by the entries of keys, which must be
// aligned with coords.
func (o *ORSClient) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	keys []string,
	coords []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(keys) != len(coords) {
		return nil, errors.New("fetch matrix row: keys and coords differ in length")
	}

	if len(keys) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, 1+len(coords))
	locations = append(locations, origin.CoordsToList())
	destIdx := make([]int, 0, len(coords))
	for i, c := range coords {
		locations = append(locations, c.CoordsToList())
		destIdx = append(destIdx, i+1)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance", "duration"},
		Sources:      []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 || len(mr.Durations) != 1 {
		return nil, fmt.Errorf(
			"expected 1 source row; got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations),
		)
	}

	rowDistances := mr.Distances[0]
	rowDurations := mr.Durations[0]

	if len(rowDistances) != len(keys) || len(rowDurations) != len(keys) {
		return nil, fmt.Errorf(
			"row lengths do not match destinations: distances=%d durations=%d destinations=%d",
			len(rowDistances), len(rowDurations), len(keys),
		)
	}

	out := make(map[string]ports.DistanceResult, len(keys))
	for i, k := range keys {
		if rowDistances[i] == nil || rowDurations[i] == nil {
			// ORS reports null for unroutable pairs.
			return nil, fmt.Errorf("matrix has no route to %s", k)
		}

		out[k] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*rowDistances[i])),
			DurationSeconds: int(math.Round(*rowDurations[i])),
		}
	}

	return out, nil
}
