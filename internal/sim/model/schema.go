package model

import (
	"fmt"
	"strconv"
)

// Field is one entry of the ordered record schema: a stable name plus
// accessors used by the chronicle serializer and by decode. Values are
// JSON-shaped: numbers are float64, allegiances are strings and sanction
// maps are objects with stringified integer keys.
type Field struct {
	Name string
	Get  func(in Info) any
	Set  func(in *Info, v any) error
}

// Fields is the canonical ordered schema of an Info record. The order is
// fixed and is part of the chronicle document format: every recorded round
// stores each agent's values in exactly this order.
var Fields = []Field{
	{
		Name: "account",
		Get:  func(in Info) any { return in.Account },
		Set: func(in *Info, v any) error {
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("account: expected number, got %T", v)
			}
			in.Account = f
			return nil
		},
	},
	{
		Name: "allegiance",
		Get:  func(in Info) any { return string(in.Allegiance) },
		Set: func(in *Info, v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("allegiance: expected string, got %T", v)
			}
			a := Allegiance(s)
			if !a.Valid() {
				return fmt.Errorf("allegiance: unrecognized institution %q", s)
			}
			in.Allegiance = a
			return nil
		},
	},
	{
		Name: "commendations",
		Get:  func(in Info) any { return in.Commendations },
		Set: func(in *Info, v any) error {
			n, err := asInt("commendations", v)
			in.Commendations = n
			return err
		},
	},
	{
		Name: "contribution",
		Get:  func(in Info) any { return in.Contribution },
		Set: func(in *Info, v any) error {
			n, err := asInt("contribution", v)
			in.Contribution = n
			return err
		},
	},
	{
		Name: "profit",
		Get:  func(in Info) any { return in.Profit },
		Set: func(in *Info, v any) error {
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("profit: expected number, got %T", v)
			}
			in.Profit = f
			return nil
		},
	},
	{
		Name: "punishments",
		Get:  func(in Info) any { return in.Punishments },
		Set: func(in *Info, v any) error {
			n, err := asInt("punishments", v)
			in.Punishments = n
			return err
		},
	},
	{
		Name: "receivedSanct",
		Get:  func(in Info) any { return in.ReceivedSanct },
		Set: func(in *Info, v any) error {
			n, err := asInt("receivedSanct", v)
			in.ReceivedSanct = n
			return err
		},
	},
	{
		Name: "sanctPositive",
		Get:  func(in Info) any { return encodeSanctMap(in.SanctPositive) },
		Set: func(in *Info, v any) error {
			m, err := decodeSanctMap("sanctPositive", v)
			in.SanctPositive = m
			return err
		},
	},
	{
		Name: "sanctNegative",
		Get:  func(in Info) any { return encodeSanctMap(in.SanctNegative) },
		Set: func(in *Info, v any) error {
			m, err := decodeSanctMap("sanctNegative", v)
			in.SanctNegative = m
			return err
		},
	},
}

// FieldNames returns the schema's field names in canonical order.
func FieldNames() []string {
	names := make([]string, len(Fields))
	for i, f := range Fields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the schema entry for name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Values returns the record's values in canonical field order.
func (in Info) Values() []any {
	vals := make([]any, len(Fields))
	for i, f := range Fields {
		vals[i] = f.Get(in)
	}
	return vals
}

// FromValues rebuilds an Info record from a row of JSON-decoded values.
// The names slice gives the field order of the row, which allows decoding
// documents whose field order differs from the current canonical one.
func FromValues(names []string, values []any) (Info, error) {
	if len(names) != len(values) {
		return Info{}, fmt.Errorf("record schema mismatch: %d names, %d values", len(names), len(values))
	}
	in := NewInfo()
	for i, name := range names {
		f, ok := FieldByName(name)
		if !ok {
			return Info{}, fmt.Errorf("record schema mismatch: unknown field %q", name)
		}
		if err := f.Set(&in, values[i]); err != nil {
			return Info{}, err
		}
	}
	return in, nil
}

func asInt(name string, v any) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: expected number, got %T", name, v)
	}
	return int(f), nil
}

func encodeSanctMap(m map[int]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func decodeSanctMap(name string, v any) (map[int]int, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return map[int]int{}, fmt.Errorf("%s: expected object, got %T", name, v)
	}
	out := make(map[int]int, len(raw))
	for k, rv := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return map[int]int{}, fmt.Errorf("%s: bad agent index key %q", name, k)
		}
		f, ok := rv.(float64)
		if !ok {
			return map[int]int{}, fmt.Errorf("%s[%s]: expected number, got %T", name, k, rv)
		}
		out[idx] = int(f)
	}
	return out, nil
}
