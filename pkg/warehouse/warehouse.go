package warehouse

import (
	"context"
	"errors"
	"fmt"

	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
)

// ErrNotFound is returned when a query addresses a dataset the snapshot does
// not contain.
var ErrNotFound = errors.New("warehouse: dataset not found")

// Query addresses one raw dataset in the warehouse snapshot.
type Query struct {
	// EntityKind and EntityID identify the entity the data belongs to.
	// Population-level datasets use KindPopulation with a zero EntityID.
	EntityKind entity.Kind
	EntityID   int

	// Measure names the quantity to pull.
	Measure gbd.Measure

	// LocationID scopes the dataset to a location. Location-independent
	// datasets (life expectancy, distribution weights) use zero.
	LocationID int
}

// String renders the query in log-friendly form.
func (q Query) String() string {
	return fmt.Sprintf("%s/%d %s loc=%d", q.EntityKind, q.EntityID, q.Measure, q.LocationID)
}

// Client reads raw datasets and round metadata from a warehouse snapshot.
type Client interface {
	// DrawTable pulls the dataset addressed by q. Returns ErrNotFound when
	// the snapshot has no data for it.
	DrawTable(ctx context.Context, q Query) (*table.Table, error)

	// EstimationYears returns the estimation year set of the round.
	EstimationYears(ctx context.Context) ([]int, error)

	// PathToTop returns the location hierarchy path from locationID up to
	// the global root, starting with locationID itself.
	PathToTop(ctx context.Context, locationID int) ([]int, error)

	// Close releases the underlying resources.
	Close() error
}

// Writer extends Client with snapshot-building operations. Snapshot
// population tooling uses it; extraction runs only need Client.
type Writer interface {
	Client

	// StoreDrawTable writes the dataset for q, replacing any existing data.
	StoreDrawTable(ctx context.Context, q Query, t *table.Table) error

	// StoreEstimationYears replaces the round's estimation year set.
	StoreEstimationYears(ctx context.Context, years []int) error

	// StoreLocationPath replaces the hierarchy path for a location.
	StoreLocationPath(ctx context.Context, locationID int, path []int) error
}
