package srt

import "strings"

// SupportType is a kind of assistance observed while moving.
type SupportType uint8

const (
	HandSupport SupportType = 1 << iota
	KneeSupport
)

func (t SupportType) String() string {
	switch t {
	case HandSupport:
		return "HAND"
	case KneeSupport:
		return "KNEE"
	default:
		return "UNKNOWN"
	}
}

// SupportSet is a union of support types.
type SupportSet uint8

// Add returns s with t included.
func (s SupportSet) Add(t SupportType) SupportSet { return s | SupportSet(t) }

// Union returns the union of s and o.
func (s SupportSet) Union(o SupportSet) SupportSet { return s | o }

// Has reports whether t is in s.
func (s SupportSet) Has(t SupportType) bool { return s&SupportSet(t) != 0 }

// Empty reports whether no support was observed.
func (s SupportSet) Empty() bool { return s == 0 }

// Types lists the members of s, hand first.
func (s SupportSet) Types() []SupportType {
	var out []SupportType
	for _, t := range [...]SupportType{HandSupport, KneeSupport} {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Names lists the members of s as wire names.
func (s SupportSet) Names() []string {
	types := s.Types()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}

func (s SupportSet) String() string {
	if s.Empty() {
		return "NONE"
	}
	return strings.Join(s.Names(), "+")
}

// ParseSupportSet rebuilds a set from wire names. Unknown names are ignored.
func ParseSupportSet(names []string) SupportSet {
	var s SupportSet
	for _, n := range names {
		switch strings.ToUpper(n) {
		case "HAND":
			s = s.Add(HandSupport)
		case "KNEE":
			s = s.Add(KneeSupport)
		}
	}
	return s
}
