// Package procedures assigns SIH procedure names to the study's analysis
// categories by keyword matching. The keywords are the Portuguese terms used
// in the SIGTAP procedure table, so they are matched verbatim against the
// lower-cased name.
package procedures

import (
	"sort"
	"strings"
)

// Category is one of the study's procedure groups.
type Category string

const (
	MajorSurgery       Category = "Major surgery"
	SpecificProcedures Category = "Specific procedures"
	MinorSurgery       Category = "Minor/medium surgery"
	OtherProcedures    Category = "Other procedures"
	Conservative       Category = "Conservative"
)

// Categories lists the groups in reporting order. Conservative comes first
// because it is the regression reference level.
var Categories = []Category{
	Conservative,
	MajorSurgery,
	MinorSurgery,
	OtherProcedures,
	SpecificProcedures,
}

var (
	majorKeywords = []string{
		"artroplastia", "artrodese", "osteossintese", "reconstrucao", "ressec/tumor",
	}
	specificKeywords = []string{
		"artrotom", "sinovectomia",
	}
	minorKeywords = []string{
		"artroscopia", "desbridamento", "exerese", "tenorrafia", "capsulorrafia",
	}
	otherKeywords = []string{
		"drenagem", "biopsia", "puncao", "retirad", "reparacao", "corpo estranho",
	}
	conservativeKeywords = []string{
		"conservador", "clinico", "sem procedimento",
	}
)

// Categorize maps a procedure name to its category. Match order matters:
// arthrotomy for foreign-body removal belongs to Other procedures even
// though the name also matches the Specific group. Names that match nothing
// fall into Other procedures, since a named procedure was still performed.
func Categorize(procedureName string) Category {
	name := strings.ToLower(strings.TrimSpace(procedureName))
	if name == "" || name == "na" {
		return Conservative
	}

	switch {
	case containsAny(name, majorKeywords):
		return MajorSurgery
	case containsAny(name, specificKeywords) && !strings.Contains(name, "corpo estranho"):
		return SpecificProcedures
	case containsAny(name, minorKeywords):
		return MinorSurgery
	case containsAny(name, otherKeywords):
		return OtherProcedures
	case containsAny(name, conservativeKeywords):
		return Conservative
	default:
		return OtherProcedures
	}
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Count tallies categorized procedure names.
type Count struct {
	Category Category
	N        int
}

// CountByCategory categorizes every name and returns the tallies sorted by
// descending count, ties broken by category name for stable output.
func CountByCategory(names []string) []Count {
	tally := make(map[Category]int)
	for _, name := range names {
		tally[Categorize(name)]++
	}

	counts := make([]Count, 0, len(tally))
	for cat, n := range tally {
		counts = append(counts, Count{Category: cat, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Category < counts[j].Category
	})

	return counts
}
