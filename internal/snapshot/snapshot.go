package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrFormat = errors.New("snapshot: malformed document")

// DeviceRecord is one discovered device from the external scan.
type DeviceRecord struct {
	ID string `json:"id"`
	IP string `json:"ip"`
}

// Index maps stable device identifiers to their current network address.
type Index map[string]string

// SkipWarning reports one discarded device record.
type SkipWarning struct {
	Index  int
	Record DeviceRecord
	Reason string
}

type document struct {
	Devices []DeviceRecord `json:"devices"`
}

// Parse decodes a scan snapshot into an identifier->address index.
// Records missing either field are dropped and reported, never propagated;
// duplicate identifiers keep the last record seen.
func Parse(raw []byte) (Index, []SkipWarning, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	idx := make(Index, len(doc.Devices))
	warnings := make([]SkipWarning, 0)
	for i, rec := range doc.Devices {
		id := strings.TrimSpace(rec.ID)
		ip := strings.TrimSpace(rec.IP)
		if id == "" || ip == "" {
			warnings = append(warnings, SkipWarning{Index: i, Record: rec, Reason: "missing id or ip"})
			continue
		}
		idx[id] = ip
	}
	return idx, warnings, nil
}

// Lookup returns the current address recorded for one device identifier.
func (idx Index) Lookup(id string) (string, bool) {
	addr, ok := idx[strings.TrimSpace(id)]
	return addr, ok
}
