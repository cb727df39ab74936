package models

import (
	"encoding/json"
	"fmt"
)

// ScalarKind tags which variant of Scalar is populated.
type ScalarKind string

const (
	ScalarString ScalarKind = "string"
	ScalarNumber ScalarKind = "number"
	ScalarBool   ScalarKind = "bool"
)

// Scalar is a tagged variant over the three JSON primitive types a
// resolution criteria's expected value, or a fetched/extracted value,
// can take.
type Scalar struct {
	Kind ScalarKind
	Str  string
	Num  float64
	Bool bool
}

func NewStringScalar(s string) Scalar { return Scalar{Kind: ScalarString, Str: s} }
func NewNumberScalar(n float64) Scalar { return Scalar{Kind: ScalarNumber, Num: n} }
func NewBoolScalar(b bool) Scalar     { return Scalar{Kind: ScalarBool, Bool: b} }

type scalarWire struct {
	Kind ScalarKind  `json:"kind"`
	Str  string      `json:"str,omitempty"`
	Num  float64     `json:"num,omitempty"`
	Bool bool        `json:"bool,omitempty"`
}

// MarshalJSON persists the tagged variant as a small JSON document
// rather than a bare interface{}, so the store's driver never has to
// guess the column type back out of a loosely-typed value.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Kind == "" {
		s.Kind = ScalarString
	}
	return json.Marshal(scalarWire{Kind: s.Kind, Str: s.Str, Num: s.Num, Bool: s.Bool})
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var w scalarWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Kind, s.Str, s.Num, s.Bool = w.Kind, w.Str, w.Num, w.Bool
	return nil
}

// String renders the scalar for string-coercion comparisons
// (equals/not_equals/contains).
func (s Scalar) String() string {
	switch s.Kind {
	case ScalarString:
		return s.Str
	case ScalarNumber:
		return fmt.Sprintf("%v", s.Num)
	case ScalarBool:
		return fmt.Sprintf("%v", s.Bool)
	default:
		return ""
	}
}
