package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrFormat = errors.New("store: malformed document")

// UnknownAddress is the sentinel reported when an entry has no recorded host.
const UnknownAddress = "N/A"

// Document is the persisted config store decoded with full key preservation.
// Numbers are kept as json.Number so untouched values round-trip verbatim.
type Document struct {
	root map[string]any
}

// Load decodes the raw config store document.
func Load(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrFormat)
	}
	return &Document{root: root}, nil
}

// TopLevelKeys returns the document's sorted top-level key names.
func (d *Document) TopLevelKeys() []string {
	keys := make([]string, 0, len(d.root))
	for k := range d.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns live views over the object elements of data.entries.
// Mutations through a returned Entry land in the document. A missing
// data/entries path yields an empty slice, not an error.
func (d *Document) Entries() []*Entry {
	data, ok := d.root["data"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := data["entries"].([]any)
	if !ok {
		return nil
	}
	out := make([]*Entry, 0, len(list))
	for _, el := range list {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, &Entry{raw: obj})
		}
	}
	return out
}

// Serialize re-encodes the document, preserving every untouched key.
func (d *Document) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("store: serialize failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Entry is a live view over one config entry object.
type Entry struct {
	raw map[string]any
}

// Title returns the entry's human label, empty when absent.
func (e *Entry) Title() string {
	title, _ := e.raw["title"].(string)
	return title
}

// DeviceID returns the stable device identifier, empty when absent.
func (e *Entry) DeviceID() string {
	id, _ := e.data()["device_id"].(string)
	return strings.TrimSpace(id)
}

// Host returns the recorded address or the unknown sentinel when absent.
func (e *Entry) Host() string {
	host, ok := e.data()["host"].(string)
	if !ok {
		return UnknownAddress
	}
	return host
}

// SetHost writes the address into the entry's nested data block.
func (e *Entry) SetHost(addr string) {
	data, ok := e.raw["data"].(map[string]any)
	if !ok {
		data = make(map[string]any)
		e.raw["data"] = data
	}
	data["host"] = addr
}

func (e *Entry) data() map[string]any {
	data, _ := e.raw["data"].(map[string]any)
	return data
}
