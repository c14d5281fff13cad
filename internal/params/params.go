// Package params resolves user-facing parameter names to match
// predicates over the free-text parameter vocabulary the three
// sources emit. The sources disagree on spelling ("pH" vs "Độ pH",
// accented vs plain Vietnamese), so a handful of well-known concepts
// match by substring instead of equality.
package params

import "strings"

// Predicate describes how a requested parameter name should match
// stored parameter_name values. Either Like is set (any pattern may
// match, none of NotLike may) or Exact is set.
type Predicate struct {
	Like    []string // case-insensitive substring patterns, OR-ed
	NotLike []string // case-insensitive substring exclusions
	Exact   string   // case-insensitive equality fallback
}

type rule struct {
	applies func(lower string) bool
	pred    Predicate
}

// Rules are evaluated in order; the most specific concept must come
// first ("total flow" before plain "flow", which excludes totals).
var rules = []rule{
	{
		applies: func(l string) bool {
			return strings.Contains(l, "tổng lưu lượng") || strings.Contains(l, "tong luu luong")
		},
		pred: Predicate{Like: []string{"%tổng lưu lượng%"}},
	},
	{
		applies: func(l string) bool {
			return (strings.Contains(l, "lưu lượng") || strings.Contains(l, "luu luong") || l == "flow" || l == "flow rate") &&
				!strings.Contains(l, "tổng") && !strings.Contains(l, "tong")
		},
		pred: Predicate{Like: []string{"%lưu lượng%"}, NotLike: []string{"%tổng%"}},
	},
	{
		applies: func(l string) bool {
			return strings.Contains(l, "mực nước") || strings.Contains(l, "muc nuoc") || l == "water level"
		},
		pred: Predicate{Like: []string{"%mực nước%"}},
	},
	{
		applies: func(l string) bool {
			return l == "ph" || l == "độ ph" || l == "do ph"
		},
		pred: Predicate{Like: []string{"%ph%"}},
	},
}

// Match returns the predicate for a requested parameter name. Names
// outside the special concepts match exactly, case-insensitively.
func Match(requested string) Predicate {
	lower := strings.ToLower(strings.TrimSpace(requested))
	for _, r := range rules {
		if r.applies(lower) {
			return r.pred
		}
	}
	return Predicate{Exact: strings.TrimSpace(requested)}
}

// Matches reports whether a stored parameter name satisfies the
// predicate. It mirrors the SQL the store generates and exists so
// the rule table is testable on its own.
func (p Predicate) Matches(stored string) bool {
	lower := strings.ToLower(stored)
	if len(p.Like) > 0 {
		hit := false
		for _, pat := range p.Like {
			if strings.Contains(lower, strings.ToLower(strings.Trim(pat, "%"))) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
		for _, pat := range p.NotLike {
			if strings.Contains(lower, strings.ToLower(strings.Trim(pat, "%"))) {
				return false
			}
		}
		return true
	}
	return strings.EqualFold(stored, p.Exact)
}
