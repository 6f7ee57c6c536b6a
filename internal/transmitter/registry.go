package transmitter

import (
	"encoding/json"
	"fmt"

	"github.com/usbrf/groundstation/internal/rfchip"
)

// Registry is the ordered, deduplicated set of observed transmitters
// plus a change-notification hook. No two entries ever satisfy IsSame.
type Registry struct {
	transmitters []Transmitter
	onChange     func()
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetOnChange installs the callback fired after every mutation.
func (r *Registry) SetOnChange(fn func()) {
	r.onChange = fn
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Transmitters returns the current entries in registry order.
func (r *Registry) Transmitters() []Transmitter {
	return r.transmitters
}

// AddOrMerge inserts candidate into the registry, merging it into the
// first IsSame match if one exists.
func (r *Registry) AddOrMerge(candidate Transmitter) Transmitter {
	for _, tx := range r.transmitters {
		if tx.IsSame(candidate) {
			tx.Merge(candidate)
			r.notify()
			return tx
		}
	}
	r.transmitters = append(r.transmitters, candidate)
	r.notify()
	return candidate
}

// AddFromChip builds the right transmitter variant from an rfchip
// candidate and folds it into the registry.
func (r *Registry) AddFromChip(cand rfchip.Candidate, chipID rfchip.ChipId) Transmitter {
	var tx Transmitter
	switch {
	case cand.DSM != nil:
		tx = NewDSM(cand.DSM, chipID)
	case cand.FrSkyX != nil:
		tx = NewFrSkyX(cand.FrSkyX, chipID)
	default:
		return nil
	}
	return r.AddOrMerge(tx)
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.transmitters = nil
	r.notify()
}

// Delete removes the transmitter with the given id string, reporting
// whether one was found.
func (r *Registry) Delete(id string) bool {
	for i, tx := range r.transmitters {
		if tx.GetIDStr() == id {
			r.transmitters = append(r.transmitters[:i], r.transmitters[i+1:]...)
			r.notify()
			return true
		}
	}
	return false
}

// Rename sets the display name of the transmitter with the given id
// string, reporting whether one was found.
func (r *Registry) Rename(id, name string) bool {
	for _, tx := range r.transmitters {
		if tx.GetIDStr() == id {
			tx.SetName(name)
			r.notify()
			return true
		}
	}
	return false
}

// SetDoHack toggles whether the transmitter with the given id string
// is a hacking target, reporting whether one was found.
func (r *Registry) SetDoHack(id string, v bool) bool {
	for _, tx := range r.transmitters {
		if tx.GetIDStr() == id {
			tx.Recv().DoHack = v
			r.notify()
			return true
		}
	}
	return false
}

type persistedEntry struct {
	Cls  string          `json:"cls"`
	Data json.RawMessage `json:"data"`
}

// Save serializes the registry to the {cls, data} envelope format.
func (r *Registry) Save() ([]byte, error) {
	entries := make([]persistedEntry, 0, len(r.transmitters))
	for _, tx := range r.transmitters {
		var cls string
		var data any
		switch v := tx.(type) {
		case *DSM:
			cls = "DSMTransmitter"
			data = v.ToObj()
		case *FrSkyX:
			cls = "FrSkyXTransmitter"
			data = v.ToObj()
		default:
			return nil, fmt.Errorf("transmitter: unknown variant %T", tx)
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, persistedEntry{Cls: cls, Data: raw})
	}
	return json.Marshal(entries)
}

// Load parses the {cls, data} envelope format and merges each restored
// transmitter into the registry by IsSame, replacing any existing
// match rather than appending alongside it.
func (r *Registry) Load(raw []byte) error {
	var entries []persistedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}

	for _, entry := range entries {
		var restored Transmitter
		switch entry.Cls {
		case "DSMTransmitter":
			var obj DSMObj
			if err := json.Unmarshal(entry.Data, &obj); err != nil {
				return err
			}
			restored = DSMFromObj(obj)
		case "FrSkyXTransmitter":
			var obj FrSkyXObj
			if err := json.Unmarshal(entry.Data, &obj); err != nil {
				return err
			}
			restored = FrSkyXFromObj(obj)
		default:
			return fmt.Errorf("transmitter: unknown persisted class %q", entry.Cls)
		}

		kept := make([]Transmitter, 0, len(r.transmitters))
		for _, tx := range r.transmitters {
			if !tx.IsSame(restored) {
				kept = append(kept, tx)
			}
		}
		r.transmitters = append(kept, restored)
	}
	r.notify()
	return nil
}
