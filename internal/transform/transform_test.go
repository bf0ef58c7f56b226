package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		input    string
		want     string
		wantName string
	}{
		{name: "empty is identity", source: "", input: "x", want: "x", wantName: "identity"},
		{name: "whitespace is identity", source: "  \n", input: "CCO", want: "CCO", wantName: "identity"},
		{name: "legacy upper lambda", source: "lambda x: x.upper()", input: "abc", want: "ABC", wantName: "upper"},
		{name: "legacy lower lambda", source: " lambda s:s.lower() ", input: "ClC", want: "clc", wantName: "lower"},
		{name: "lambda with mismatched receiver", source: "lambda x: y.upper()", input: "abc", want: "abc", wantName: "identity"},
		{name: "arbitrary lambda body", source: "lambda x: x.replace('C', 'N')", input: "CC", want: "CC", wantName: "identity"},
		{name: "exit call", source: "lambda x: exit(0)", input: "CC", want: "CC", wantName: "identity"},
		{name: "named upper", source: "UPPER", input: "c1ccccc1", want: "C1CCCCC1", wantName: "upper"},
		{name: "strip stereo", source: "strip_stereo", input: `C[C@@H](O)/C=C\C`, want: "C[CH](O)C=CC", wantName: "strip_stereo"},
		{name: "chain", source: "largest_fragment | strip_stereo", input: "Cl.C[C@H](N)C(=O)O", want: "C[CH](N)C(=O)O", wantName: "largest_fragment|strip_stereo"},
		{name: "unknown name in chain", source: "strip|nope", input: " C ", want: " C ", wantName: "identity"},
		{name: "first fragment", source: "first_fragment", input: "CCO.Cl", want: "CCO", wantName: "first_fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Build(tt.source)
			assert.Equal(t, tt.want, tr.Apply(tt.input))
			assert.Equal(t, tt.wantName, tr.Name())
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "identity")
	assert.Contains(t, names, "strip_stereo")
	assert.IsIncreasing(t, names)
	for _, n := range names {
		_, ok := Lookup(n)
		assert.True(t, ok, n)
	}
}

func TestApplyAll(t *testing.T) {
	in := []string{"a", "b"}
	out := ApplyAll(Upper, in)
	assert.Equal(t, []string{"A", "B"}, out)
	assert.Equal(t, []string{"a", "b"}, in)
}
