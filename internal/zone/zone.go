// Package zone maps coordinates onto the pretrained spatial partition and
// enriches zone ids with display metadata.
package zone

import (
	"errors"
	"fmt"
	"sort"

	"github.com/taxicast/taxicast/internal/geo"
)

// Zone errors.
var (
	// ErrUnknownZone indicates a zone id with no metadata record.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrInvalidTable indicates a metadata table whose ids are not exactly 0..N-1.
	ErrInvalidTable = errors.New("invalid zone table")
	// ErrPartitionMismatch indicates a partition whose output range differs from the table.
	ErrPartitionMismatch = errors.New("partition does not match zone table")
)

// Zone is a discrete region of the city with its display metadata.
type Zone struct {
	ID          int
	Center      geo.Point
	Name        string
	Type        string
	Color       string
	Description string
}

// Partition assigns a coordinate to a zone id in [0, NumClusters).
type Partition interface {
	Predict(lat, lon float64) int
	NumClusters() int
}

// Table is an immutable zone metadata table indexed by id.
type Table struct {
	zones []Zone
}

// NewTable builds a table from zones in any order. Ids must be exactly 0..N-1.
func NewTable(zones []Zone) (*Table, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no zones", ErrInvalidTable)
	}
	sorted := append([]Zone(nil), zones...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i, z := range sorted {
		if z.ID != i {
			return nil, fmt.Errorf("%w: ids must be contiguous from 0, found %d at position %d", ErrInvalidTable, z.ID, i)
		}
	}
	return &Table{zones: sorted}, nil
}

// Len returns the number of zones.
func (t *Table) Len() int {
	return len(t.zones)
}

// Lookup returns the zone with the given id.
func (t *Table) Lookup(id int) (Zone, error) {
	if id < 0 || id >= len(t.zones) {
		return Zone{}, fmt.Errorf("%w: %d (table has %d zones)", ErrUnknownZone, id, len(t.zones))
	}
	return t.zones[id], nil
}

// All returns a copy of every zone in id order.
func (t *Table) All() []Zone {
	return append([]Zone(nil), t.zones...)
}

// Assigner resolves coordinates to zones.
type Assigner struct {
	partition Partition
	table     *Table
}

// NewAssigner binds a partition to its metadata table. Every id the partition
// can produce must have a record.
func NewAssigner(partition Partition, table *Table) (*Assigner, error) {
	if partition.NumClusters() != table.Len() {
		return nil, fmt.Errorf("%w: partition has %d clusters, table has %d zones",
			ErrPartitionMismatch, partition.NumClusters(), table.Len())
	}
	return &Assigner{partition: partition, table: table}, nil
}

// Assign returns the zone containing p.
func (a *Assigner) Assign(p geo.Point) (Zone, error) {
	if err := p.Validate(); err != nil {
		return Zone{}, err
	}
	return a.table.Lookup(a.partition.Predict(p.Lat, p.Lon))
}

// Lookup returns zone metadata by id.
func (a *Assigner) Lookup(id int) (Zone, error) {
	return a.table.Lookup(id)
}

// Count returns the number of zones.
func (a *Assigner) Count() int {
	return a.table.Len()
}

// Zones returns every zone in id order.
func (a *Assigner) Zones() []Zone {
	return a.table.All()
}
