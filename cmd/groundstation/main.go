// Command groundstation passively observes DSM2/DSMX/FrSkyX transmitters
// over a set of attached USB probes and directs probes to impersonate
// hackable ones on operator command.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/usbrf/groundstation/internal/config"
	"github.com/usbrf/groundstation/internal/logging"
	"github.com/usbrf/groundstation/internal/probe"
	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/station"
)

// depthOverrides pairs each config-supplied scan depth with the
// protocol it governs, for applying to the station at startup.
func depthOverrides(cfg config.Config) map[protocol.ID]protocol.ScanDepth {
	toProtocolDepth := func(d config.ScanDepth) protocol.ScanDepth {
		switch d {
		case config.ScanMinimum:
			return protocol.Minimum
		case config.ScanMaximum:
			return protocol.Maximum
		default:
			return protocol.Average
		}
	}
	return map[protocol.ID]protocol.ScanDepth{
		protocol.DSMX:     toProtocolDepth(cfg.DSMXDepth),
		protocol.DSM2:     toProtocolDepth(cfg.DSM2Depth),
		protocol.FrSkyX:   toProtocolDepth(cfg.FrSkyXDepth),
		protocol.FrSkyXEU: toProtocolDepth(cfg.FrSkyXEUDepth),
	}
}

func main() {
	fs := pflag.NewFlagSet("groundstation", pflag.ExitOnError)
	resolve := config.Flags(fs, config.Default())
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := resolve()

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	logger := logging.New(os.Stderr, level)

	var eventLog *logging.EventLog
	if cfg.EventLogPath != "" {
		el, err := logging.OpenEventLog(cfg.EventLogPath, cfg.TimestampFormat)
		if err != nil {
			logger.Fatal("could not open event log", "path", cfg.EventLogPath, "err", err)
		}
		eventLog = el
	}

	st := station.New()
	if saved, err := os.ReadFile(cfg.TransmittersPath); err == nil {
		if err := st.Registry().Load(saved); err != nil {
			logger.Warn("could not load saved transmitters", "path", cfg.TransmittersPath, "err", err)
		} else {
			logger.Info("loaded transmitters", "path", cfg.TransmittersPath, "count", len(st.Registry().Transmitters()))
		}
	}

	st.Registry().SetOnChange(func() {
		if eventLog == nil {
			return
		}
		for _, tx := range st.Registry().Transmitters() {
			c := tx.Recv()
			_ = eventLog.Record(c.ProtName, tx.GetIDStr(), c.Hackable, c.RecvCnt)
		}
	})

	for id, depth := range depthOverrides(cfg) {
		st.SetDepth(id, depth)
	}

	connectProbe := func(devname string, transport probe.Transport) {
		sess := probe.NewSession(devname, transport)
		if err := sess.Negotiate(cfg.StationVersion); err != nil {
			logger.Warn("probe negotiation failed", "device", devname, "err", err)
			transport.Close()
			return
		}
		p := probe.NewProbe(sess)
		st.AddProbe(p)
		go func() {
			if err := sess.Run(); err != nil {
				logger.Info("probe disconnected", "device", devname, "err", err)
				st.RemoveProbe(p)
			}
		}()
		logger.Info("probe ready", "device", devname, "board", sess.Info().Board, "chips", p.ChipNames())
	}

	switch cfg.TransportType {
	case config.TransportMock:
		connectProbe("mock0", probe.NewMockTransport([4]uint16{1, 2, 3, 4}, 2))
	default:
		devices, err := probe.Discover()
		if err != nil {
			logger.Warn("USB probe discovery failed", "err", err)
		}
		if len(devices) == 0 && cfg.SerialGlob != "" {
			if matches, err := filepath.Glob(cfg.SerialGlob); err == nil {
				devices = matches
			}
		}
		for _, devname := range devices {
			transport, err := probe.OpenSerial(devname, cfg.SerialBaud)
			if err != nil {
				logger.Warn("could not open probe", "device", devname, "err", err)
				continue
			}
			connectProbe(devname, transport)
		}
	}

	if diags := st.Scan(); len(diags) > 0 {
		for _, d := range diags {
			logger.Warn(d)
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("shutting down")
	for _, d := range st.Stop() {
		logger.Warn(d)
	}

	data, err := st.Registry().Save()
	if err != nil {
		logger.Error("could not serialize transmitters", "err", err)
		return
	}
	if err := os.WriteFile(cfg.TransmittersPath, data, 0o644); err != nil {
		logger.Error("could not save transmitters", "path", cfg.TransmittersPath, "err", err)
	}
}
