package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNumericConversion is matched by every ParseError.
var ErrNumericConversion = errors.New("numeric conversion failed")

// ParseError reports a number literal in a prompt that could not be converted.
type ParseError struct {
	Segment string // segment the literal came from
	Literal string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("prompt segment %q: invalid number %q: %v", e.Segment, e.Literal, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrNumericConversion
}

// Record is the parsed form of a prompt.
type Record struct {
	Loras        []string    `json:"lora"`
	Objectives   [][]float64 `json:"objective"`
	LoraScalings []float64   `json:"lora_scaling"`

	// ObjectiveOwners runs parallel to Objectives. Entry i holds the index into
	// Loras of the adapter that carried Objectives[i], or -1 for a bare vector.
	ObjectiveOwners []int `json:"objective_owner"`
}

func newRecord() *Record {
	return &Record{
		Loras:           []string{},
		Objectives:      [][]float64{},
		LoraScalings:    []float64{},
		ObjectiveOwners: []int{},
	}
}

// ObjectiveFor returns the objective vector given with the i-th LoRA, if any.
func (r *Record) ObjectiveFor(lora int) ([]float64, bool) {
	for i, owner := range r.ObjectiveOwners {
		if owner == lora {
			return r.Objectives[i], true
		}
	}
	return nil, false
}

// Conditioned reports whether the record carries any objective or adapter.
func (r *Record) Conditioned() bool {
	return len(r.Loras) > 0 || len(r.Objectives) > 0
}

// Parse reads a prompt of the form
//
//	[0.1,0.2]                          bare objective vector (single segment only)
//	<name>;<name:0.5>:[1,0];...        LoRA adapters, optional scaling and vector
//
// Segments are separated by ';'. In a prompt with more than one segment only
// LoRA segments count; anything else is skipped. The only error Parse returns
// is a *ParseError for a number that does not convert.
func Parse(prompt string) (*Record, error) {
	segments := split(prompt, ";")
	rec := newRecord()
	if len(segments) == 0 {
		return rec, nil
	}

	if len(segments) == 1 && !isLoraSegment(segments[0]) {
		obj, err := parseVector(segments[0], bracketCleaner.Replace(segments[0]))
		if err != nil {
			return nil, err
		}
		rec.Objectives = append(rec.Objectives, obj)
		rec.ObjectiveOwners = append(rec.ObjectiveOwners, -1)
		return rec, nil
	}

	for _, seg := range segments {
		if !isLoraSegment(seg) {
			continue
		}
		if err := rec.addLora(seg); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

var (
	bracketCleaner = strings.NewReplacer("[", "", "]", "")
	tailCleaner    = strings.NewReplacer(":", "", "[", "", "]", "")
)

// addLora handles one segment shaped like <name[:scaling]>[:[v1,v2,...]].
func (r *Record) addLora(seg string) error {
	head, tail, _ := strings.Cut(seg, ">")
	if i := strings.Index(head, "<"); i >= 0 {
		head = head[i+1:]
	}

	parts := strings.Split(head, ":")
	name := parts[0]
	scaling := 1.0
	if len(parts) > 1 {
		v, err := parseFloat(seg, parts[1])
		if err != nil {
			return err
		}
		scaling = v
	}

	var obj []float64
	if tail != "" && strings.Contains(tail, ":") {
		v, err := parseVector(seg, tailCleaner.Replace(tail))
		if err != nil {
			return err
		}
		obj = v
	}

	r.Loras = append(r.Loras, name)
	r.LoraScalings = append(r.LoraScalings, scaling)
	if obj != nil {
		r.Objectives = append(r.Objectives, obj)
		r.ObjectiveOwners = append(r.ObjectiveOwners, len(r.Loras)-1)
	}
	return nil
}

func isLoraSegment(seg string) bool {
	return strings.Contains(seg, "<") && strings.Contains(seg, ">")
}

// parseVector converts a comma separated list of numbers. seg is only used
// for error reporting.
func parseVector(seg, list string) ([]float64, error) {
	pieces := strings.Split(list, ",")
	vec := make([]float64, 0, len(pieces))
	for _, p := range pieces {
		v, err := parseFloat(seg, p)
		if err != nil {
			return nil, err
		}
		vec = append(vec, v)
	}
	return vec, nil
}

func parseFloat(seg, literal string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(literal), 64)
	if err != nil {
		return 0, &ParseError{Segment: seg, Literal: literal, Err: err}
	}
	return v, nil
}

// split trims the input, drops newlines, splits on sep and discards empty pieces.
func split(s, sep string) []string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", "")
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
