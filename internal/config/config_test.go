package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial_glob: /dev/ttyACM*\nverbose: true\ndsmx_depth: maximum\ntransport_type: mock\nserial_baud: 57600\nstation_version: 2000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyACM*", cfg.SerialGlob)
	require.True(t, cfg.Verbose)
	require.Equal(t, ScanMaximum, cfg.DSMXDepth)
	require.Equal(t, "transmitters.json", cfg.TransmittersPath)
	require.Equal(t, TransportMock, cfg.TransportType)
	require.Equal(t, 57600, cfg.SerialBaud)
	require.Equal(t, uint32(2000), cfg.StationVersion)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/station.yaml")
	require.Error(t, err)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	resolve := Flags(fs, Default())

	require.NoError(t, fs.Parse([]string{"--serial-glob=/dev/ttyUSB*", "--verbose", "--transport=mock", "--serial-baud=9600", "--station-version=1234"}))

	cfg := resolve()
	require.Equal(t, "/dev/ttyUSB*", cfg.SerialGlob)
	require.True(t, cfg.Verbose)
	require.Equal(t, TransportMock, cfg.TransportType)
	require.Equal(t, 9600, cfg.SerialBaud)
	require.Equal(t, uint32(1234), cfg.StationVersion)
}

func TestFlagsLeaveUnsetFieldsAtDefault(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	resolve := Flags(fs, Default())

	require.NoError(t, fs.Parse(nil))

	cfg := resolve()
	require.Equal(t, Default(), cfg)
}
