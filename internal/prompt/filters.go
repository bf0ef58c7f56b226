package prompt

import "strings"

// ParseExclude returns the vocabulary minus the comma separated names in
// excluded, keeping vocabulary order. Names that are not in the vocabulary
// have no effect.
//
// An empty exclusion list yields an empty slice, which callers read as
// "no filtering", not as "exclude everything".
func ParseExclude(excluded string, vocab []string) []string {
	names := split(excluded, ",")
	if len(names) == 0 {
		return []string{}
	}

	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}

	allowed := make([]string, 0, len(vocab))
	for _, tok := range vocab {
		if _, ok := drop[tok]; !ok {
			allowed = append(allowed, tok)
		}
	}
	return allowed
}

// ParseSAR reads a comma separated list of semi-autoregression flags, one per
// model segment. Only "t" or "T" is true; "true" spelled out is false.
// Empty input yields a single false flag.
func ParseSAR(control string) []bool {
	pieces := split(control, ",")
	if len(pieces) == 0 {
		return []bool{false}
	}

	flags := make([]bool, len(pieces))
	for i, p := range pieces {
		flags[i] = strings.EqualFold(p, "t")
	}
	return flags
}
