// Command simulator runs a single Self-Healing Protocol simulation: it
// loads a network, a schedule, and a list of link failures, replays the
// repair pipeline for each failure, and prints a run summary plus a CSV
// metrics file (§10).
//
// It is intentionally thin: no failure-combination iteration, no scenario
// generation, no retries. Orchestrating many runs is out of this module's
// scope (§1).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FPozo/SelfHealingProtocol/internal/loader"
	"github.com/FPozo/SelfHealingProtocol/internal/logging"
	"github.com/FPozo/SelfHealingProtocol/internal/metrics"
	"github.com/FPozo/SelfHealingProtocol/internal/observability"
	"github.com/FPozo/SelfHealingProtocol/internal/sim"
)

func main() {
	configPath := flag.String("config", "config.yaml", "run configuration YAML path")
	networkPath := flag.String("network", "", "network JSON document path (overrides config)")
	schedulePath := flag.String("schedule", "", "schedule JSON document path (overrides config)")
	failuresPath := flag.String("failures", "", "failure list JSON document path (overrides config)")
	metricsOut := flag.String("metrics-out", "", "CSV metrics output path (overrides config)")
	flag.Parse()

	cfg, err := loader.LoadRunConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if *networkPath != "" {
		cfg.NetworkPath = *networkPath
	}
	if *schedulePath != "" {
		cfg.SchedulePath = *schedulePath
	}
	if *failuresPath != "" {
		cfg.FailuresPath = *failuresPath
	}
	if *metricsOut != "" {
		cfg.MetricsOut = *metricsOut
	}

	log := logging.New(cfg.LoggingConfig())

	topo, err := loader.LoadNetwork(cfg.NetworkPath)
	if err != nil {
		panic(fmt.Errorf("failed to load network %q: %w", cfg.NetworkPath, err))
	}
	sched, err := loader.LoadSchedule(cfg.SchedulePath)
	if err != nil {
		panic(fmt.Errorf("failed to load schedule %q: %w", cfg.SchedulePath, err))
	}
	seeds, err := loader.LoadFailures(cfg.FailuresPath)
	if err != nil {
		panic(fmt.Errorf("failed to load failures %q: %w", cfg.FailuresPath, err))
	}

	fmt.Printf("Loaded network+schedule: %d frames, hyperperiod=%d ns, %d failure events\n",
		len(sched.Frames()), sched.Hyperperiod, len(seeds))

	registry := prometheus.NewRegistry()
	collector, err := observability.NewRepairCollector(registry)
	if err != nil {
		panic(fmt.Errorf("failed to register repair metrics: %w", err))
	}
	if cfg.MetricsListenAddr != "" {
		http.Handle("/metrics", promhttp.HandlerFor(collector.Gatherer(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsListenAddr, nil); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server stopped: %v\n", err)
			}
		}()
		fmt.Printf("Serving Prometheus metrics on %s/metrics\n", cfg.MetricsListenAddr)
	}

	sink := metrics.NewSink(collector)
	simCfg := cfg.SimConfig()
	simCfg.Logger = log
	simCfg.Metrics = sink
	simCfg.Collector = collector

	scheduler := sim.New(topo, sched, simCfg)
	states, err := scheduler.Run(seeds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation aborted: %v\n", err)
		os.Exit(1)
	}

	if cfg.MetricsOut != "" {
		f, err := os.Create(cfg.MetricsOut)
		if err != nil {
			panic(fmt.Errorf("failed to create metrics output %q: %w", cfg.MetricsOut, err))
		}
		defer f.Close()
		if err := sink.WriteCSV(f); err != nil {
			panic(fmt.Errorf("failed to write metrics output %q: %w", cfg.MetricsOut, err))
		}
	}

	printSummary(states)
}

// summary is the run summary printed as JSON (§6): per-instance outcomes
// only (link, category, healed flag, timings); it carries no utilization
// figures.
type summary struct {
	Instances []instanceSummary `json:"instances"`
}

type instanceSummary struct {
	LinkID        int    `json:"link_id"`
	Category      string `json:"category"`
	Healed        bool   `json:"healed"`
	TimeDetected  int64  `json:"time_detected"`
	TimePatched   int64  `json:"time_patched,omitempty"`
	TimeOptimized int64  `json:"time_optimized,omitempty"`
}

func printSummary(states []*sim.FailureState) {
	out := summary{Instances: make([]instanceSummary, 0, len(states))}
	for _, s := range states {
		out.Instances = append(out.Instances, instanceSummary{
			LinkID:        s.LinkID,
			Category:      s.Category.String(),
			Healed:        s.Healed,
			TimeDetected:  s.TimeDetected,
			TimePatched:   s.TimePatched,
			TimeOptimized: s.TimeOptimized,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(fmt.Errorf("failed to encode run summary: %w", err))
	}
}
