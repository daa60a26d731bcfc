// Package loader reads the JSON network/schedule/failure-list documents and
// the YAML run configuration that cmd/simulator needs to build a Scheduler
// (§6, §10). XML I/O is explicitly out of scope (§1); these are this
// module's own owned document shapes, not a rewrite of the original XML
// schema.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/FPozo/SelfHealingProtocol/internal/logging"
	"github.com/FPozo/SelfHealingProtocol/internal/schedule"
	"github.com/FPozo/SelfHealingProtocol/internal/sim"
	"github.com/FPozo/SelfHealingProtocol/internal/topology"
	"github.com/FPozo/SelfHealingProtocol/internal/window"
)

// RunConfig is the YAML-loaded run configuration (§9 AMBIENT STACK, §10).
type RunConfig struct {
	NetworkPath  string `yaml:"network_path"`
	SchedulePath string `yaml:"schedule_path"`
	FailuresPath string `yaml:"failures_path"`
	MetricsOut   string `yaml:"metrics_out"`

	HighPerformanceSwitches map[int][]int `yaml:"high_performance_switches"`
	TimeClassificationNanos int64         `yaml:"time_classification_nanos"`
	SwitchDelayNanos        int64         `yaml:"switch_delay_nanos"`
	SizeFrameBytes          int64         `yaml:"size_frame_bytes"`
	SizeLinkBytes           int64         `yaml:"size_link_bytes"`
	PathCutoff              int           `yaml:"path_cutoff"`

	Protocol struct {
		PeriodNanos   int64 `yaml:"period_nanos"`
		DurationNanos int64 `yaml:"duration_nanos"`
	} `yaml:"protocol"`

	PatchSolverPath    string `yaml:"patch_solver_path"`
	OptimizeSolverPath string `yaml:"optimize_solver_path"`
	ScratchDir         string `yaml:"scratch_dir"`

	Logging struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
	} `yaml:"logging"`

	MetricsListenAddr string `yaml:"metrics_listen_addr"`
}

// LoadRunConfig reads and parses the YAML run configuration at path.
func LoadRunConfig(path string) (RunConfig, error) {
	var cfg RunConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("loader: reading run config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("loader: parsing run config %q: %w", path, err)
	}
	return cfg, nil
}

// SimConfig builds a sim.Config from the run configuration's static fields.
// Logger, Metrics, and Collector are left for the caller to attach.
func (c RunConfig) SimConfig() sim.Config {
	return sim.Config{
		Algorithm:               sim.ISHP,
		HighPerformanceSwitches: c.HighPerformanceSwitches,
		TimeClassificationNanos: c.TimeClassificationNanos,
		SwitchDelayNanos:        c.SwitchDelayNanos,
		SizeFrameBytes:          c.SizeFrameBytes,
		SizeLinkBytes:           c.SizeLinkBytes,
		Protocol: window.Protocol{
			Period:   c.Protocol.PeriodNanos,
			Duration: c.Protocol.DurationNanos,
		},
		PathCutoff:         c.PathCutoff,
		PatchSolverPath:    c.PatchSolverPath,
		OptimizeSolverPath: c.OptimizeSolverPath,
		ScratchDir:         c.ScratchDir,
	}
}

// LoggingConfig builds a logging.Config from the run configuration.
func (c RunConfig) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.AddSource,
	}
}

// networkDoc is the JSON shape of the network document (§6, scoped to what
// this module owns: nodes and links; traffic/frame data lives in the
// schedule document instead, since this module's Frame is schedule-owned).
type networkDoc struct {
	Nodes []struct {
		ID   int    `json:"id"`
		Type string `json:"type"`
	} `json:"nodes"`
	Links []struct {
		ID       int    `json:"id"`
		From     int    `json:"from"`
		To       int    `json:"to"`
		SpeedMBs int64  `json:"speed_mbs"`
		Kind     string `json:"kind"`
	} `json:"links"`
}

func parseNodeType(s string) topology.NodeType {
	switch s {
	case "EndSystem":
		return topology.EndSystem
	case "AccessPoint":
		return topology.AccessPoint
	default:
		return topology.Switch
	}
}

// LoadNetwork reads the JSON network document at path into a Topology.
func LoadNetwork(path string) (*topology.Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading network %q: %w", path, err)
	}
	var doc networkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: parsing network %q: %w", path, err)
	}
	topo := topology.New()
	for _, n := range doc.Nodes {
		topo.AddNode(topology.NewNode(n.ID, parseNodeType(n.Type)))
	}
	for _, l := range doc.Links {
		kind := topology.Wired
		if l.Kind == "Wireless" {
			kind = topology.Wireless
		}
		topo.AddLink(&topology.Link{ID: l.ID, From: l.From, To: l.To, SpeedMBs: l.SpeedMBs, Kind: kind})
	}
	return topo, nil
}

// scheduleDoc is the JSON shape of the schedule document (§6).
type scheduleDoc struct {
	Hyperperiod int64 `json:"hyperperiod"`
	TimeSlot    int64 `json:"time_slot"`
	Frames      []struct {
		ID         int            `json:"id"`
		SenderID   int            `json:"sender_id"`
		Receivers  []int          `json:"receivers"`
		Period     int64          `json:"period"`
		Deadline   int64          `json:"deadline"`
		Size       int64          `json:"size"`
		StartingAt int64          `json:"starting_at"`
		EndToEnd   int64          `json:"end_to_end"`
		Paths      map[int][]int `json:"paths"` // receiver -> link path
		Offsets    map[int][]struct {
			Instance         int   `json:"instance"`
			Replica          int   `json:"replica"`
			TransmissionTime int64 `json:"transmission_time"`
			EndingTime       int64 `json:"ending_time"`
		} `json:"offsets"` // link -> per-instance offsets
	} `json:"frames"`
}

// LoadSchedule reads the JSON schedule document at path into a Schedule.
func LoadSchedule(path string) (*schedule.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading schedule %q: %w", path, err)
	}
	var doc scheduleDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: parsing schedule %q: %w", path, err)
	}
	sched := schedule.New(doc.Hyperperiod, doc.TimeSlot)
	for _, fd := range doc.Frames {
		f, err := schedule.NewFrame(fd.ID, fd.SenderID, fd.Receivers, fd.Period, fd.Deadline, fd.Size, fd.StartingAt, fd.EndToEnd)
		if err != nil {
			return nil, fmt.Errorf("loader: frame %d: %w", fd.ID, err)
		}
		for receiver, path := range fd.Paths {
			if err := f.SetPath(receiver, path); err != nil {
				return nil, fmt.Errorf("loader: frame %d path to %d: %w", fd.ID, receiver, err)
			}
		}
		for link, instances := range fd.Offsets {
			numInstances := f.NumInstances(sched.Hyperperiod)
			if err := f.PrepareLinkOffset(link, numInstances, 0); err != nil {
				return nil, fmt.Errorf("loader: frame %d link %d offset prepare: %w", fd.ID, link, err)
			}
			for _, inst := range instances {
				if err := f.SetOffsetTransmissionTime(link, inst.Instance, inst.Replica, inst.TransmissionTime); err != nil {
					return nil, fmt.Errorf("loader: frame %d link %d instance %d transmission: %w", fd.ID, link, inst.Instance, err)
				}
				if err := f.SetOffsetEndingTime(link, inst.Instance, inst.Replica, inst.EndingTime); err != nil {
					return nil, fmt.Errorf("loader: frame %d link %d instance %d ending: %w", fd.ID, link, inst.Instance, err)
				}
			}
		}
		sched.AddFrame(f)
	}
	return sched, nil
}

// LoadFailures reads the JSON failure-list document at path (§6 Simulation
// document's Events/Failure list).
func LoadFailures(path string) ([]sim.FailureSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading failures %q: %w", path, err)
	}
	var seeds []struct {
		LinkID int   `json:"link_id"`
		Time   int64 `json:"time"`
	}
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("loader: parsing failures %q: %w", path, err)
	}
	out := make([]sim.FailureSeed, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, sim.FailureSeed{LinkID: s.LinkID, Time: s.Time})
	}
	return out, nil
}
