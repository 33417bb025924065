// Package exporter turns retrieved Dataverse rows into export artifacts in a
// handful of tabular formats.
package exporter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

// ExportResult carries stats about one finished export.
type ExportResult struct {
	RowsProcessed int64
	Duration      time.Duration
}

// Columns derives a stable column order for a set of entities: the synthetic
// row-number attribute first, then the union of all other attribute names in
// sorted order. Pages can disagree on which attributes a record carries, so
// the union matters.
func Columns(entities []dataverse.Entity) []string {
	seen := make(map[string]struct{})
	var names []string
	hasRowNum := false

	for _, e := range entities {
		for name := range e {
			if name == dataverse.RowNumberAttribute {
				hasRowNum = true
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	if hasRowNum {
		return append([]string{dataverse.RowNumberAttribute}, names...)
	}
	return names
}

// StreamEntities writes the entities through the encoder: header first, then
// one row per entity in order. Attributes an entity lacks become nulls.
func StreamEntities(ctx context.Context, entities []dataverse.Entity, encoder RowEncoder) (*ExportResult, error) {
	start := time.Now()

	columns := Columns(entities)
	if err := encoder.WriteHeader(columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var rowCount int64
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values := make([]dataverse.Value, len(columns))
		for i, col := range columns {
			if v, ok := entity[col]; ok {
				values[i] = v
			} else {
				values[i] = dataverse.NullValue()
			}
		}
		if err := encoder.WriteRow(values); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
		rowCount++
	}

	if err := encoder.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	if err := encoder.Error(); err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	return &ExportResult{
		RowsProcessed: rowCount,
		Duration:      time.Since(start),
	}, nil
}
