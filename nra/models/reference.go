package models

// CodeSet is a membership set of reference codes.
type CodeSet map[string]struct{}

// Contains reports set membership. A nil set contains nothing.
func (s CodeSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// NewCodeSet builds a set from a list of codes, dropping empties.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		if c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// CodeMap maps a reference code to its category label.
type CodeMap map[string]string

// ReferenceCode is one row of a reference code table.
type ReferenceCode struct {
	Code        string
	Description string
}

// ReferenceSet holds every resolved reference code list the rollup engine
// consumes. It is assembled once per run by the reference manager and never
// mutated afterwards.
type ReferenceSet struct {
	NewbornICD   CodeSet
	SingletonICD CodeSet
	TwinICD      CodeSet
	MultipleICD  CodeSet

	NewbornRev CodeSet
	NICURev    CodeSet

	NICUMSDRG  CodeSet
	NICUAPRDRG CodeSet

	BirthweightICD    CodeMap
	GestationalAgeICD CodeMap
}
