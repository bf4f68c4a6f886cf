package station

import "context"

// StaticSource serves a fixed set of records, used for tests and for
// deployments with a hand-maintained station list.
type StaticSource struct {
	Records []Record
}

// Stations returns the fixed record set.
func (s StaticSource) Stations(_ context.Context) ([]Record, error) {
	return s.Records, nil
}

// Name returns the source name.
func (s StaticSource) Name() string {
	return "static"
}
