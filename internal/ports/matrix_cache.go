package ports

import "context"

// MatrixSnapshot is the serializable form of a travel matrix.
type MatrixSnapshot struct {
	IDs       []int   `json:"ids"`
	Durations [][]int `json:"durations"`
}

// MatrixCache stores whole travel matrices under a caller-chosen key.
type MatrixCache interface {
	GetMatrix(ctx context.Context, key string) (MatrixSnapshot, bool, error)
	PutMatrix(ctx context.Context, key string, m MatrixSnapshot) error
}
