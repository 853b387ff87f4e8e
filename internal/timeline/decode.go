package timeline

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// legacyRecord is the older dump format: [{"id": "...", "timeline": {...}}].
type legacyRecord struct {
	ID       string      `json:"id"`
	Timeline RawTimeline `json:"timeline"`
}

// Decode parses a single MatchTimelineDto. It does not validate.
func Decode(data []byte) (*RawTimeline, error) {
	var t RawTimeline
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "timeline: decode")
	}
	return &t, nil
}

// DecodeList parses a JSON array of timelines. Both plain MatchTimelineDto
// elements and legacy {id, timeline} wrappers are accepted; for wrappers the
// wrapper id fills in a missing metadata.matchId. A top-level object is
// treated as a one-element list.
func DecodeList(data []byte) ([]*RawTimeline, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("timeline: decode list: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		t, err := Decode(data)
		if err != nil {
			return nil, err
		}
		return []*RawTimeline{t}, nil
	}
	if !root.IsArray() {
		return nil, eris.Errorf("timeline: decode list: expected array or object, got %s", root.Type)
	}

	if root.Get("0.timeline").IsObject() {
		var wrapped []legacyRecord
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, eris.Wrap(err, "timeline: decode legacy list")
		}
		out := make([]*RawTimeline, len(wrapped))
		for i := range wrapped {
			t := wrapped[i].Timeline
			if t.Metadata.MatchID == "" {
				t.Metadata.MatchID = wrapped[i].ID
			}
			out[i] = &t
		}
		return out, nil
	}

	var out []*RawTimeline
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "timeline: decode list")
	}
	return out, nil
}

// LoadFile reads a JSON file written by the crawler (or any array of
// timelines) and decodes it with DecodeList.
func LoadFile(path string) ([]*RawTimeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "timeline: read %s", path)
	}
	return DecodeList(data)
}
