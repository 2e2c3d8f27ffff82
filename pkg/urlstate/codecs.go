package urlstate

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// StringCodec passes values through unchanged.
func StringCodec() Codec[string] {
	return Codec[string]{
		Serialize:   func(v string) string { return v },
		Deserialize: func(raw string) string { return raw },
	}
}

// IntCodec parses decimal integers. Anything unparseable reads as zero.
// Every value serializes, zero included; a zero write only drops the key
// when the binding's declared default is "0".
func IntCodec() Codec[int] {
	return Codec[int]{
		Serialize: strconv.Itoa,
		Deserialize: func(raw string) int {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return 0
			}
			return n
		},
	}
}

// BoolCodec is tri-state: an absent or unrecognized value reads as nil,
// "true"/"false" read as the corresponding pointer. A nil write removes the
// key.
func BoolCodec() Codec[*bool] {
	return Codec[*bool]{
		Serialize: func(v *bool) string {
			if v == nil {
				return ""
			}
			return strconv.FormatBool(*v)
		},
		Deserialize: func(raw string) *bool {
			switch raw {
			case "true":
				t := true
				return &t
			case "false":
				f := false
				return &f
			}
			return nil
		},
	}
}

// StringSliceCodec encodes a slice as comma-separated tokens. Empty tokens
// are dropped on read, so ",a,,b," reads as [a b].
func StringSliceCodec() Codec[[]string] {
	return Codec[[]string]{
		Serialize: func(v []string) string {
			return strings.Join(v, ",")
		},
		Deserialize: func(raw string) []string {
			if raw == "" {
				return nil
			}
			var out []string
			for _, tok := range strings.Split(raw, ",") {
				if tok == "" {
					continue
				}
				out = append(out, tok)
			}
			return out
		},
	}
}

// IntSliceCodec encodes an int slice as comma-separated decimals. Tokens
// that fail to parse are silently dropped on read rather than failing the
// whole value.
func IntSliceCodec() Codec[[]int] {
	return Codec[[]int]{
		Serialize: func(v []int) string {
			if len(v) == 0 {
				return ""
			}
			parts := make([]string, len(v))
			for i, n := range v {
				parts[i] = strconv.Itoa(n)
			}
			return strings.Join(parts, ",")
		},
		Deserialize: func(raw string) []int {
			if raw == "" {
				return nil
			}
			var out []int
			for _, tok := range strings.Split(raw, ",") {
				n, err := strconv.Atoi(tok)
				if err != nil {
					continue
				}
				out = append(out, n)
			}
			return out
		},
	}
}

// StringSetCodec encodes a set as sorted comma-separated tokens. Sorting
// keeps the serialization canonical so equal sets produce equal URLs.
func StringSetCodec() Codec[map[string]struct{}] {
	return Codec[map[string]struct{}]{
		Serialize: func(v map[string]struct{}) string {
			if len(v) == 0 {
				return ""
			}
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return strings.Join(keys, ",")
		},
		Deserialize: func(raw string) map[string]struct{} {
			if raw == "" {
				return nil
			}
			set := make(map[string]struct{})
			for _, tok := range strings.Split(raw, ",") {
				if tok == "" {
					continue
				}
				set[tok] = struct{}{}
			}
			if len(set) == 0 {
				return nil
			}
			return set
		},
	}
}

// DefaultDateLayout is the layout used when DateCodec is given none.
const DefaultDateLayout = "2006-01-02"

// DateCodec encodes times with the given layout, defaulting to
// DefaultDateLayout. Unparseable values read as the zero time, which
// serializes back to the empty string.
func DateCodec(layout string) Codec[time.Time] {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return Codec[time.Time]{
		Serialize: func(v time.Time) string {
			if v.IsZero() {
				return ""
			}
			return v.Format(layout)
		},
		Deserialize: func(raw string) time.Time {
			t, err := time.Parse(layout, raw)
			if err != nil {
				return time.Time{}
			}
			return t
		},
	}
}

// StringEnumCodec restricts values to the allowed set. Anything outside it
// reads and writes as the empty string, removing the key.
func StringEnumCodec(allowed ...string) Codec[string] {
	member := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		member[v] = struct{}{}
	}
	clamp := func(v string) string {
		if _, ok := member[v]; ok {
			return v
		}
		return ""
	}
	return Codec[string]{
		Serialize:   clamp,
		Deserialize: clamp,
	}
}
