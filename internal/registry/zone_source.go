package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ZoneInfo is the display metadata of a zone, without its centroid.
type ZoneInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// ZoneSource provides zone display metadata.
type ZoneSource interface {
	LoadZones(ctx context.Context) ([]ZoneInfo, error)
}

// BuiltinZoneSource serves the compiled-in New York City table.
type BuiltinZoneSource struct{}

// LoadZones returns a copy of the built-in table.
func (BuiltinZoneSource) LoadZones(_ context.Context) ([]ZoneInfo, error) {
	return append([]ZoneInfo(nil), builtinZones...), nil
}

// FileZoneSource reads a JSON array of ZoneInfo. A missing file falls back to
// the built-in table.
type FileZoneSource struct {
	Path string
}

// LoadZones reads the metadata file.
func (s FileZoneSource) LoadZones(ctx context.Context) ([]ZoneInfo, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return BuiltinZoneSource{}.LoadZones(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("reading zone metadata: %w", err)
	}

	var zones []ZoneInfo
	if err := json.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("decoding zone metadata %s: %w", s.Path, err)
	}
	return zones, nil
}

// PostgresZoneSource reads zone metadata from the zones table.
type PostgresZoneSource struct {
	pool *pgxpool.Pool
}

// NewPostgresZoneSource creates a PostgreSQL zone source.
func NewPostgresZoneSource(pool *pgxpool.Pool) *PostgresZoneSource {
	return &PostgresZoneSource{pool: pool}
}

// LoadZones reads every zone row ordered by id.
func (s *PostgresZoneSource) LoadZones(ctx context.Context) ([]ZoneInfo, error) {
	query := `
		SELECT id, name, zone_type, color, COALESCE(description, '')
		FROM zones
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	var zones []ZoneInfo
	for rows.Next() {
		var z ZoneInfo
		if err := rows.Scan(&z.ID, &z.Name, &z.Type, &z.Color, &z.Description); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}

	return zones, nil
}
