// Package config loads the ground station's configuration: a YAML
// file for persistent settings, overridable by command-line flags the
// way the teacher's own utilities layer pflag on top of defaults.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ScanDepth names are the lower-case forms of protocol.ScanDepth's names so the YAML
// file stays human-editable without importing the protocol package
// here (config must not depend on the domain packages it configures).
type ScanDepth string

const (
	ScanMinimum ScanDepth = "minimum"
	ScanAverage ScanDepth = "average"
	ScanMaximum ScanDepth = "maximum"
)

// TransportType selects how probes are reached: a real USB-CDC serial
// port, or an in-process MockTransport for running without hardware.
type TransportType string

const (
	TransportSerial TransportType = "serial"
	TransportMock   TransportType = "mock"
)

// Config is the ground station's full runtime configuration.
type Config struct {
	// TransportType picks the probe transport: "serial" (default) or
	// "mock" (no USB hardware required).
	TransportType TransportType `yaml:"transport_type"`

	// SerialGlob is a shell glob expanded to find probe device nodes
	// when USB discovery fails or finds no probe.
	SerialGlob string `yaml:"serial_glob"`

	// SerialBaud is the probe serial link's baud rate.
	SerialBaud int `yaml:"serial_baud"`

	// StationVersion is the value sent unchanged in REQ_INFO: the
	// ground-station version already multiplied by 1000.
	StationVersion uint32 `yaml:"station_version"`

	// TransmittersPath is where the registry is saved/loaded; defaults
	// to "transmitters.json" in the working directory.
	TransmittersPath string `yaml:"transmitters_path"`

	// EventLogPath, if set, enables a CSV event log of transmitter
	// sightings.
	EventLogPath string `yaml:"event_log_path"`

	// TimestampFormat is a strftime pattern for event log rows; empty
	// disables the timestamp column.
	TimestampFormat string `yaml:"timestamp_format"`

	DSMXDepth     ScanDepth `yaml:"dsmx_depth"`
	DSM2Depth     ScanDepth `yaml:"dsm2_depth"`
	FrSkyXDepth   ScanDepth `yaml:"frskyx_depth"`
	FrSkyXEUDepth ScanDepth `yaml:"frskyx_eu_depth"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		TransportType:    TransportSerial,
		SerialBaud:       115200,
		StationVersion:   1000,
		TransmittersPath: "transmitters.json",
		DSMXDepth:        ScanAverage,
		DSM2Depth:        ScanAverage,
		FrSkyXDepth:      ScanAverage,
		FrSkyXEUDepth:    ScanAverage,
	}
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags registers command-line overrides on fs and returns a function
// that applies whichever flags were actually set on top of cfg.
func Flags(fs *pflag.FlagSet, cfg Config) func() Config {
	configPath := fs.StringP("config", "c", "", "Path to a YAML configuration file")
	transportType := fs.String("transport", string(cfg.TransportType), `Probe transport: "serial" or "mock"`)
	serialGlob := fs.StringP("serial-glob", "s", cfg.SerialGlob, "Shell glob for probe serial devices, used when USB discovery finds no probe")
	serialBaud := fs.Int("serial-baud", cfg.SerialBaud, "Probe serial link baud rate")
	stationVersion := fs.Uint32("station-version", cfg.StationVersion, "Ground station version sent in REQ_INFO, already multiplied by 1000")
	eventLog := fs.StringP("event-log", "e", cfg.EventLogPath, "Path to a CSV event log of transmitter sightings")
	timestampFormat := fs.StringP("timestamp-format", "T", cfg.TimestampFormat, "strftime format for event log timestamps")
	verbose := fs.BoolP("verbose", "v", cfg.Verbose, "Verbose logging")

	return func() Config {
		out := cfg
		if *configPath != "" {
			loaded, err := Load(*configPath)
			if err == nil {
				out = loaded
			}
		}
		if fs.Changed("transport") {
			out.TransportType = TransportType(*transportType)
		}
		if fs.Changed("serial-glob") {
			out.SerialGlob = *serialGlob
		}
		if fs.Changed("serial-baud") {
			out.SerialBaud = *serialBaud
		}
		if fs.Changed("station-version") {
			out.StationVersion = *stationVersion
		}
		if fs.Changed("event-log") {
			out.EventLogPath = *eventLog
		}
		if fs.Changed("timestamp-format") {
			out.TimestampFormat = *timestampFormat
		}
		if fs.Changed("verbose") {
			out.Verbose = *verbose
		}
		return out
	}
}
