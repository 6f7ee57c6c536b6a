// Package station wires the transmitter registry, scan scheduler, and
// probe sessions together into the control-thread object a daemon
// drives: the Go analogue of the original GTK scanner minus its GUI.
package station

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/usbrf/groundstation/internal/probe"
	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/rfchip"
	"github.com/usbrf/groundstation/internal/scheduler"
	"github.com/usbrf/groundstation/internal/transmitter"
)

// ErrHackPayloadUndefined mirrors rfchip.ErrScanPayloadUndefined: the
// FrSkyX hack dispatch payload is never defined beyond CYRF6936's, so a
// dispatch attempt against a CC2500 probe reports this rather than
// guessing a wire format.
var ErrHackPayloadUndefined = errors.New("station: FrSkyX hack payload undefined")

// Station is the daemon's control-thread object. All mutation goes
// through its single mutex; no lock is held across probe I/O.
type Station struct {
	mu sync.Mutex

	registry *transmitter.Registry
	cyrf     *rfchip.CYRF6936Chip
	cc       *rfchip.CC2500Chip
	probes   []*probe.Probe
}

// New builds a Station with an empty registry and default-depth chips.
func New() *Station {
	return &Station{
		registry: transmitter.NewRegistry(),
		cyrf:     rfchip.NewCYRF6936Chip(),
		cc:       rfchip.NewCC2500Chip(),
	}
}

func (s *Station) Registry() *transmitter.Registry { return s.registry }

// SetDepth applies depth to whichever chip owns protocol id, reporting
// whether a chip claimed it. This is the runtime entry point for
// live scan-depth reconfiguration (config-driven or operator-driven).
func (s *Station) SetDepth(id protocol.ID, depth protocol.ScanDepth) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cyrf.SetDepth(id, depth) {
		return true
	}
	return s.cc.SetDepth(id, depth)
}

// AddProbe registers a negotiated probe and wires its RECV_DATA
// callback to the station's scan-result handler.
func (s *Station) AddProbe(p *probe.Probe) {
	s.mu.Lock()
	s.probes = append(s.probes, p)
	s.mu.Unlock()

	p.Session.SetOnRecvData(func(d probe.RecvData) {
		s.onRecvData(p, d)
	})
}

// RemoveProbe drops a disconnected probe without draining its session.
func (s *Station) RemoveProbe(p *probe.Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.probes {
		if cur == p {
			s.probes = append(s.probes[:i], s.probes[i+1:]...)
			return
		}
	}
}

func (s *Station) onRecvData(p *probe.Probe, d probe.RecvData) {
	var cand rfchip.Candidate
	var chipID rfchip.ChipId
	var ok bool

	s.mu.Lock()
	switch d.ChipID {
	case probe.ChipCYRF6936:
		chipID = rfchip.CYRF6936
		cand, ok = s.cyrf.ParseRecvMsg(d.Data)
	case probe.ChipCC2500:
		chipID = rfchip.CC2500
		cand, ok = s.cc.ParseRecvMsg(d.Data)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	s.registry.AddFromChip(cand, chipID)
	s.mu.Unlock()
}

// Scan assigns every connected probe to a chip by scheduler pressure
// and dispatches a scanner PROT_EXEC start to each, splitting the
// chip's channel set across its assigned probes. Probes whose chip has
// no defined scan-payload serialization (CC2500) are reported as
// diagnostics rather than failing the whole call.
func (s *Station) Scan() []string {
	s.mu.Lock()
	probes := make([]*probe.Probe, len(s.probes))
	copy(probes, s.probes)
	chips := []scheduler.Chip{s.cyrf, s.cc}
	s.mu.Unlock()

	probeChips := make([]scheduler.ProbeChips, len(probes))
	for i, p := range probes {
		probeChips[i] = p
	}

	assignments := scheduler.Assign(probeChips, chips)

	byChip := map[string][]int{}
	for _, a := range assignments {
		byChip[a.ChipName] = append(byChip[a.ChipName], a.ProbeIndex)
	}

	var diagnostics []string
	for chipName, probeIndices := range byChip {
		sort.Ints(probeIndices)
		switch chipName {
		case s.cyrf.Name():
			slices := s.cyrf.DivideChannels(len(probeIndices))
			for i, probeIdx := range probeIndices {
				data := rfchip.GenerateScanData(slices[i])
				if err := probes[probeIdx].Session.Exec(probe.ProtExec{ID: probe.ProtoScanner, Type: probe.RunStart, ArgData: data}); err != nil {
					diagnostics = append(diagnostics, fmt.Sprintf("scan dispatch to %s failed: %v", probes[probeIdx].Session.DeviceName(), err))
				}
			}
		case s.cc.Name():
			slices := s.cc.DivideChannels(len(probeIndices))
			for i, probeIdx := range probeIndices {
				data, err := rfchip.GenerateCCScanData(slices[i])
				if err != nil {
					diagnostics = append(diagnostics, fmt.Sprintf("scan dispatch to %s: %v", probes[probeIdx].Session.DeviceName(), err))
					continue
				}
				if err := probes[probeIdx].Session.Exec(probe.ProtExec{ID: probe.ProtoCCScanner, Type: probe.RunStart, ArgData: data}); err != nil {
					diagnostics = append(diagnostics, fmt.Sprintf("scan dispatch to %s failed: %v", probes[probeIdx].Session.DeviceName(), err))
				}
			}
		}
	}
	return diagnostics
}

// Stop issues PROT_EXEC(stop) to every probe. The host does not wait
// for firmware acknowledgement.
func (s *Station) Stop() []string {
	s.mu.Lock()
	probes := make([]*probe.Probe, len(s.probes))
	copy(probes, s.probes)
	s.mu.Unlock()

	var diagnostics []string
	for _, p := range probes {
		if err := p.Session.Exec(probe.ProtExec{ID: probe.ProtoScanner, Type: probe.RunStop}); err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("stop dispatch to %s failed: %v", p.Session.DeviceName(), err))
		}
	}
	return diagnostics
}

// Hack dispatches a targeted hack PROT_EXEC to one probe per do_hack
// transmitter, processed in recv_cnt descending order so the
// most-observed (and so most likely hackable) transmitters claim
// probes first. A probe is eligible when it carries the transmitter's
// chip, is idle or scanning (not already running a hack), and has not
// been claimed earlier in the same call. A transmitter with no eligible
// probe produces a diagnostic and remains in the registry for a later
// retry. Starting a new protocol on a probe already scanning implicitly
// preempts it at the firmware side.
func (s *Station) Hack() []string {
	s.mu.Lock()
	probes := make([]*probe.Probe, len(s.probes))
	copy(probes, s.probes)
	var targets []transmitter.Transmitter
	for _, tx := range s.registry.Transmitters() {
		if tx.Recv().DoHack {
			targets = append(targets, tx)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Recv().RecvCnt > targets[j].Recv().RecvCnt
	})

	used := make([]bool, len(probes))
	var diagnostics []string

	for _, tx := range targets {
		wantChip := rfchip.CYRF6936
		if _, isFrSkyX := tx.(*transmitter.FrSkyX); isFrSkyX {
			wantChip = rfchip.CC2500
		}

		idx := -1
		for i, p := range probes {
			run := p.Session.Running()
			busy := run.Type == probe.RunStart && run.Protocol != probe.ProtoScanner && run.Protocol != probe.ProtoCCScanner
			if !used[i] && !busy && p.HasChip(wantChip) {
				idx = i
				break
			}
		}
		if idx == -1 {
			diagnostics = append(diagnostics, fmt.Sprintf("could not start hacking on %s, not enough devices", tx.GetIDStr()))
			continue
		}
		used[idx] = true

		if err := dispatchHack(probes[idx], tx); err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("hack dispatch to %s for %s: %v", probes[idx].Session.DeviceName(), tx.GetIDStr(), err))
		}
	}
	return diagnostics
}

func dispatchHack(p *probe.Probe, tx transmitter.Transmitter) error {
	dsm, ok := tx.(*transmitter.DSM)
	if !ok {
		return ErrHackPayloadUndefined
	}

	var channels [2]int
	if !dsm.DSMX {
		sorted := make([]int, 0, len(dsm.Channels))
		for c := range dsm.Channels {
			sorted = append(sorted, c)
		}
		sort.Ints(sorted)
		for i := 0; i < 2 && i < len(sorted); i++ {
			channels[i] = sorted[i]
		}
	}

	data := rfchip.GenerateHackData(dsm.ID, dsm.DSMX, channels)
	return p.Session.Exec(probe.ProtExec{ID: probe.ProtoDSMHack, Type: probe.RunStart, ArgData: data})
}
