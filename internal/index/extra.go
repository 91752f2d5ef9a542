package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Members this tool does not model (scoring hints such as negative_keywords or
// boost, the legacy skill_count, keys from newer writers) are kept in Extra
// and written back unchanged, so a merge never drops data it did not touch.

type (
	plainIndex   Index
	plainEntry   Entry
	plainCoUsage CoUsage
)

var (
	indexKeys   = jsonKeys(reflect.TypeFor[plainIndex]())
	entryKeys   = jsonKeys(reflect.TypeFor[plainEntry]())
	coUsageKeys = jsonKeys(reflect.TypeFor[plainCoUsage]())
)

func (idx *Index) UnmarshalJSON(b []byte) error {
	var p plainIndex
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*idx = Index(p)
	idx.Extra = unknownMembers(b, indexKeys)
	return nil
}

func (idx Index) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainIndex(idx), idx.Extra)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var p plainEntry
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = Entry(p)
	e.Extra = unknownMembers(b, entryKeys)
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainEntry(e), e.Extra)
}

func (c *CoUsage) UnmarshalJSON(b []byte) error {
	var p plainCoUsage
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = CoUsage(p)
	c.Extra = unknownMembers(b, coUsageKeys)
	return nil
}

func (c CoUsage) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainCoUsage(c), c.Extra)
}

// jsonKeys returns the member names the struct type t encodes.
func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := map[string]struct{}{}
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
}

// unknownMembers returns the members of the JSON object b whose keys are not
// in known, or nil when there are none.
func unknownMembers(b []byte, known map[string]struct{}) map[string]json.RawMessage {
	var extra map[string]json.RawMessage
	gjson.ParseBytes(b).ForEach(func(k, v gjson.Result) bool {
		if _, ok := known[k.Str]; ok {
			return true
		}
		if extra == nil {
			extra = map[string]json.RawMessage{}
		}
		extra[k.Str] = json.RawMessage(v.Raw)
		return true
	})
	return extra
}

// marshalWithExtra encodes v and appends the extra members in key order.
// Keys v already encodes win over extra ones.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	known := gjson.ParseBytes(b)

	keys := make([]string, 0, len(extra))
	for k := range extra {
		if !known.Get(gjson.Escape(k)).Exists() {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return b, nil
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	sep := len(bytes.TrimSpace(b)) > 2
	for _, k := range keys {
		if !json.Valid(extra[k]) {
			return nil, fmt.Errorf("invalid JSON for member %q", k)
		}
		if sep {
			buf.WriteByte(',')
		}
		sep = true
		name, _ := json.Marshal(k)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
