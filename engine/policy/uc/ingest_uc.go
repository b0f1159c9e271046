package uc

import (
	"context"
	"errors"

	"github.com/skywise-ai/skywise/engine/policy"
	"github.com/skywise-ai/skywise/engine/policy/ingest"
)

// Ingest runs the ingestion pipeline for one or more airlines.
type Ingest struct {
	pipeline *ingest.Pipeline
	root     string
}

func NewIngest(pipeline *ingest.Pipeline, root string) (*Ingest, error) {
	if pipeline == nil {
		return nil, errors.New("uc: ingestion pipeline is required")
	}
	if root == "" {
		return nil, errors.New("uc: docs root is required")
	}
	return &Ingest{pipeline: pipeline, root: root}, nil
}

// Execute ingests the named airlines, or every supported airline when none
// are given. A batch-level failure for one airline aborts the run; the
// caller decides whether to rerun.
func (i *Ingest) Execute(ctx context.Context, airlines []string) ([]*ingest.Result, error) {
	targets, err := resolveAirlines(airlines)
	if err != nil {
		return nil, err
	}
	results := make([]*ingest.Result, 0, len(targets))
	for _, airline := range targets {
		result, err := i.pipeline.Run(ctx, i.root, airline)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func resolveAirlines(names []string) ([]policy.Airline, error) {
	if len(names) == 0 {
		return policy.Airlines(), nil
	}
	targets := make([]policy.Airline, 0, len(names))
	for _, name := range names {
		airline, err := policy.ParseAirline(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, airline)
	}
	return targets, nil
}
