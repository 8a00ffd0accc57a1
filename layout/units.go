package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for length and line-height.
// The engine measures everything in CSS pixels (96 per inch); norms are
// authored in cm/pt and converted at the boundary.

// Unit represents the original unit of a length value as specified in a norm.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // CSS pixels
)

// Conversion constants between pt, mm and px.
const (
	PtToMm  = 0.352777
	MmToPt  = 1.0 / PtToMm
	PxPerIn = 96.0
	PtPerIn = 72.0
	MmPerIn = 25.4
	PxToMm  = MmPerIn / PxPerIn
	MmToPx  = PxPerIn / MmPerIn
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Cm, Pt and Px build lengths in the units norms use most.
func Cm(v float64) Length { return Length{Value: v, Unit: UnitCM} }
func Pt(v float64) Length { return Length{Value: v, Unit: UnitPT} }
func Px(v float64) Length { return Length{Value: v, Unit: UnitPX} }

func (l Length) IsZero() bool { return l.Value == 0 }

// Scale multiplies the value and keeps the unit.
func (l Length) Scale(f float64) Length { return Length{Value: l.Value * f, Unit: l.Unit} }

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// inches converts any absolute length to inches; UnitNone is read as px.
func (l Length) inches() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value / MmPerIn
	case UnitCM:
		return l.Value * 10 / MmPerIn
	case UnitIN:
		return l.Value
	case UnitPT:
		return l.Value / PtPerIn
	default:
		return l.Value / PxPerIn
	}
}

// To converts this length to the target unit.
func (l Length) To(target Unit) float64 {
	if l.Unit == target {
		return l.Value
	}
	in := l.inches()
	switch target {
	case UnitMM:
		return in * MmPerIn
	case UnitCM:
		return in * MmPerIn / 10
	case UnitIN:
		return in
	case UnitPT:
		return in * PtPerIn
	default:
		return in * PxPerIn
	}
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }
func (l Length) ToPX() float64 { return l.To(UnitPX) }

// ParseRawLengthStr parses a length string preserving its unit.
// A bare number keeps UnitNone; callers decide what that means.
func ParseRawLengthStr(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, nil
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineHeightKind distinguishes factor-based vs absolute line heights.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec preserves original author intent: either a factor (e.g., 1.5x) or an absolute length (e.g., 18pt).
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// Factor returns a factor-based line height.
func Factor(f float64) LineHeightSpec { return LineHeightSpec{Kind: LineHeightFactor, Factor: f} }

// Resolve computes the absolute line height in target unit using the given fontSize (which carries its unit).
func (s LineHeightSpec) Resolve(fontSize Length, target Unit) float64 {
	switch s.Kind {
	case LineHeightFactor:
		if s.Factor <= 0 {
			return fontSize.To(target) * 1.4
		}
		return fontSize.To(target) * s.Factor
	case LineHeightAbsolute:
		return s.Len.To(target)
	default:
		return fontSize.To(target) * 1.4
	}
}

// ParseLineHeight accepts "1.5", "1.5x" (factors) or an absolute length such as "18pt".
func ParseLineHeight(value string) (LineHeightSpec, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return LineHeightSpec{}, fmt.Errorf("行高为空")
	}
	if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64); err == nil {
		if f <= 0 {
			return LineHeightSpec{}, fmt.Errorf("行高必须为正数: %q", value)
		}
		return Factor(f), nil
	}
	l, err := ParseRawLengthStr(v)
	if err != nil {
		return LineHeightSpec{}, err
	}
	return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}, nil
}
