// Package history records finished deployment runs so that operators can see
// what was deployed where, and which backup corresponds to which run. The
// active run itself is never persisted.
package history

import (
	"context"
	"time"
)

// Record is one finished deployment run.
type Record struct {
	RunID      string    `yaml:"runID" bson:"runID"`
	Target     string    `yaml:"target" bson:"target"`
	Host       string    `yaml:"host" bson:"host"`
	Artifact   string    `yaml:"artifact" bson:"artifact"`
	Outcome    string    `yaml:"outcome" bson:"outcome"`
	Stage      string    `yaml:"stage" bson:"stage"`
	Reason     string    `yaml:"reason,omitempty" bson:"reason,omitempty"`
	StartedAt  time.Time `yaml:"startedAt" bson:"startedAt"`
	FinishedAt time.Time `yaml:"finishedAt" bson:"finishedAt"`
}

// Store persists deployment records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}
