package loader

import (
	"context"

	"celltowers/internal/types"
)

// FileSource reads both input tables from CSV files on disk.
type FileSource struct {
	TowersPath    string
	OperatorsPath string
}

// Towers loads the tower-records CSV.
func (s FileSource) Towers(ctx context.Context) ([]types.TowerRecord, error) {
	return LoadTowers(ctx, s.TowersPath)
}

// Operators loads the operator-mapping CSV.
func (s FileSource) Operators(ctx context.Context) ([]types.OperatorMapping, error) {
	return LoadOperators(ctx, s.OperatorsPath)
}
