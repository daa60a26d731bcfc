// Package metrics implements MetricsSink (§2, §6): an append-only tabular
// record of each failure instance's outcome, plus the Prometheus wiring in
// internal/observability for live monitoring of the same numbers.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/FPozo/SelfHealingProtocol/internal/observability"
)

// Classification buckets a failure instance's healing outcome (§6).
type Classification int

const (
	ClassificationFailed            Classification = 0
	ClassificationHealedWithinLimit Classification = 1
	ClassificationHealedAboveLimit  Classification = 2
)

// Row is one CSV database row (§6): Instance, Broken Link Utilization, Path
// Utilization, Total Utilization, Broken Link Offsets, Path Offsets, Total
// Offsets, Successful, Patching Time, Optimization Time, Classification.
type Row struct {
	Instance              int
	BrokenLinkUtilization float64
	PathUtilization       float64
	TotalUtilization      float64
	BrokenLinkOffsets     int
	PathOffsets           int
	TotalOffsets          int
	Successful            bool
	PatchingTimeNanos     int64
	OptimizationTimeNanos int64
	Classification        Classification
}

var csvHeader = []string{
	"Instance", "Broken Link Utilization", "Path Utilization", "Total Utilization",
	"Broken Link Offsets", "Path Offsets", "Total Offsets", "Successful",
	"Patching Time", "Optimization Time", "Classification",
}

// Sink accumulates rows and mirrors the running state into Prometheus via
// an optional RepairCollector.
type Sink struct {
	rows      []Row
	collector *observability.RepairCollector
}

// NewSink returns a Sink. collector may be nil to skip Prometheus wiring.
func NewSink(collector *observability.RepairCollector) *Sink {
	return &Sink{collector: collector}
}

// Record appends row and mirrors it into the Prometheus collector, if any.
func (s *Sink) Record(row Row) {
	s.rows = append(s.rows, row)

	if s.collector == nil {
		return
	}
	s.collector.SetLinkUtilization(row.BrokenLinkUtilization)
	s.collector.ObservePatch(float64(row.PatchingTimeNanos) / 1e9)
	s.collector.ObserveOptimize(float64(row.OptimizationTimeNanos) / 1e9)
	switch row.Classification {
	case ClassificationFailed:
		s.collector.IncFailure("failed")
	case ClassificationHealedWithinLimit:
		s.collector.IncFailure("healed_within_limit")
	case ClassificationHealedAboveLimit:
		s.collector.IncFailure("healed_above_limit")
	}
}

// Rows returns every recorded row, in recording order.
func (s *Sink) Rows() []Row { return s.rows }

// WriteCSV writes the accumulated rows to w in the column order from §6.
func (s *Sink) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("metrics: writing CSV header: %w", err)
	}
	for _, row := range s.rows {
		record := []string{
			strconv.Itoa(row.Instance),
			strconv.FormatFloat(row.BrokenLinkUtilization, 'f', -1, 64),
			strconv.FormatFloat(row.PathUtilization, 'f', -1, 64),
			strconv.FormatFloat(row.TotalUtilization, 'f', -1, 64),
			strconv.Itoa(row.BrokenLinkOffsets),
			strconv.Itoa(row.PathOffsets),
			strconv.Itoa(row.TotalOffsets),
			strconv.FormatBool(row.Successful),
			strconv.FormatInt(row.PatchingTimeNanos, 10),
			strconv.FormatInt(row.OptimizationTimeNanos, 10),
			strconv.Itoa(int(row.Classification)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("metrics: writing CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
