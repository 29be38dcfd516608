package report

import (
	"sort"
	"time"

	"renewals/internal/core"
)

// MonthLabel renders a YYYY-MM key as "March 2024". Unparsable keys are
// returned unchanged.
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}

// GroupByMonth bands date groups into calendar months. Months are ordered by
// key (newest first when desc); groups keep their relative order.
func GroupByMonth(groups []core.DateGroup, desc bool) []core.MonthSection {
	index := map[string]int{}
	var sections []core.MonthSection
	for _, g := range groups {
		key := g.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(sections)
			index[key] = i
			sections = append(sections, core.MonthSection{Key: key, Label: MonthLabel(key)})
		}
		sections[i].Groups = append(sections[i].Groups, g)
	}
	sort.SliceStable(sections, func(i, j int) bool {
		if desc {
			return sections[i].Key > sections[j].Key
		}
		return sections[i].Key < sections[j].Key
	})
	return sections
}
