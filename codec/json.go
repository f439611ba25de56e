package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec. Use it when portability and a
// minimal dependency surface matter more than encoding speed.
//
// Persisted files are self-describing: they record the codec name in their
// header and are opened by selecting the codec by name, so switching the
// default codec never orphans existing snapshots.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library for newly written
// snapshots. Existing files select their codec by the recorded name.
var Default Codec = GoJSON{}
