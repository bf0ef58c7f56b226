// Package transform provides the named post-processing steps applied to each
// generated sequence before it is displayed.
//
// Transforms are picked by name from a fixed registry. User text is never
// compiled or evaluated.
package transform

import (
	"regexp"
	"sort"
	"strings"
)

// Transform rewrites one generated string.
type Transform interface {
	Name() string
	Apply(s string) string
}

type funcTransform struct {
	name string
	fn   func(string) string
}

func (f funcTransform) Name() string          { return f.name }
func (f funcTransform) Apply(s string) string { return f.fn(s) }

var (
	Identity Transform = funcTransform{"identity", func(s string) string { return s }}
	Upper    Transform = funcTransform{"upper", strings.ToUpper}
	Lower    Transform = funcTransform{"lower", strings.ToLower}
	Strip    Transform = funcTransform{"strip", strings.TrimSpace}

	// StripStereo removes chirality marks and directional bonds from SMILES.
	StripStereo Transform = funcTransform{"strip_stereo", stripStereo}

	// FirstFragment keeps the part before the first '.' separator.
	FirstFragment Transform = funcTransform{"first_fragment", firstFragment}

	// LargestFragment keeps the longest '.' separated fragment.
	LargestFragment Transform = funcTransform{"largest_fragment", largestFragment}
)

var registry = map[string]Transform{}

func init() {
	for _, t := range []Transform{Identity, Upper, Lower, Strip, StripStereo, FirstFragment, LargestFragment} {
		registry[t.Name()] = t
	}
}

// Names lists the registered transform names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a transform by case-insensitive name.
func Lookup(name string) (Transform, bool) {
	t, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Chain applies its steps left to right.
type Chain []Transform

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, "|")
}

func (c Chain) Apply(s string) string {
	for _, t := range c {
		s = t.Apply(s)
	}
	return s
}

// lambdaPattern matches the single-expression form older prompt files used,
// e.g. "lambda x: x.upper()". Only the receiver methods below are accepted.
var lambdaPattern = regexp.MustCompile(`^lambda\s+([A-Za-z_]\w*)\s*:\s*([A-Za-z_]\w*)\.(upper|lower|strip)\(\)$`)

var lambdaMethods = map[string]Transform{
	"upper": Upper,
	"lower": Lower,
	"strip": Strip,
}

// Build turns a selector into a Transform. A selector is either a '|'
// separated list of registered names ("strip_stereo|upper") or the legacy
// lambda form of upper, lower or strip. Anything unrecognised, including an
// empty selector, yields Identity.
func Build(source string) Transform {
	source = strings.TrimSpace(source)
	if source == "" {
		return Identity
	}

	if m := lambdaPattern.FindStringSubmatch(source); m != nil {
		if m[1] != m[2] {
			return Identity
		}
		return lambdaMethods[m[3]]
	}

	var chain Chain
	for _, part := range strings.Split(source, "|") {
		t, ok := Lookup(part)
		if !ok {
			return Identity
		}
		chain = append(chain, t)
	}
	if len(chain) == 1 {
		return chain[0]
	}
	return chain
}

// ApplyAll runs t over every item and returns a new slice.
func ApplyAll(t Transform, items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = t.Apply(s)
	}
	return out
}

var stereoReplacer = strings.NewReplacer("@", "", "/", "", `\`, "")

func stripStereo(s string) string {
	return stereoReplacer.Replace(s)
}

func firstFragment(s string) string {
	head, _, _ := strings.Cut(s, ".")
	return head
}

func largestFragment(s string) string {
	best := ""
	for _, frag := range strings.Split(s, ".") {
		if len(frag) > len(best) {
			best = frag
		}
	}
	return best
}
