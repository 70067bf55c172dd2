package chart

import "sort"

// Sign classifies the amounts of a filtered row set.
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignMixed    Sign = "mixed"
	// SignZero is part of the wire vocabulary but never produced by
	// ExtractMeta: empty and all-zero datasets classify as positive.
	SignZero Sign = "zero"
)

// Meta summarizes the shape of one filtered row set. It is derived in a
// single pass, immutable once computed, and scoped to one invocation.
type Meta struct {
	LevelsPresent []int `json:"levels_present"`
	// MajorLevel is the charting parent level, 0 when no level has more
	// than one distinct category. When more than two levels qualify as
	// multi-item, the two deepest qualifying levels are retained as
	// major/minor and shallower multi-item levels are ignored.
	MajorLevel int `json:"major_level"`
	// MajorCategoryCount is the number of distinct categories at the
	// primary level (major level when present, shallowest level otherwise).
	MajorCategoryCount int   `json:"major_category_count"`
	MinorLevels        []int `json:"minor_levels"`
	SortYearCount      int   `json:"sort_year_count"`
	SortPeriodCount    int   `json:"sort_period_count"`
	Sign               Sign  `json:"sign"`
}

// HasMajorLevel reports whether any level carries two or more distinct
// categories.
func (m Meta) HasMajorLevel() bool { return m.MajorLevel > 0 }

// PrimaryLevel is the level bars and pies chart against: the major level
// when one exists, otherwise the shallowest level present.
func (m Meta) PrimaryLevel() int {
	if m.MajorLevel > 0 {
		return m.MajorLevel
	}
	if len(m.LevelsPresent) > 0 {
		return m.LevelsPresent[0]
	}
	return 0
}

// MultiplePeriods reports whether the rows span more than one period.
func (m Meta) MultiplePeriods() bool {
	return m.SortYearCount > 1 || m.SortPeriodCount > 1
}

// ExtractMeta scans the filtered rows once and produces the summary the
// eligibility evaluator and compilers work from. Empty input yields a
// summary with MajorLevel 0 and positive sign; no errors are possible.
func ExtractMeta(rows []FilteredRow) Meta {
	catsByLevel := make(map[int]map[string]struct{})
	years := make(map[int]struct{})
	periods := make(map[int]struct{})
	hasPos, hasNeg := false, false

	for _, r := range rows {
		cats, ok := catsByLevel[r.Level]
		if !ok {
			cats = make(map[string]struct{})
			catsByLevel[r.Level] = cats
		}
		cats[r.Category] = struct{}{}
		years[r.SortYear] = struct{}{}
		periods[r.SortPeriod] = struct{}{}
		switch r.Amount.Sign() {
		case 1:
			hasPos = true
		case -1:
			hasNeg = true
		}
	}

	levels := make([]int, 0, len(catsByLevel))
	for l := range catsByLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	var qualifying []int
	for _, l := range levels {
		if len(catsByLevel[l]) > 1 {
			qualifying = append(qualifying, l)
		}
	}

	// Keep the deepest two qualifying levels: the shallower of the pair is
	// the major level, everything deeper and present is minor.
	major := 0
	switch {
	case len(qualifying) == 1:
		major = qualifying[0]
	case len(qualifying) >= 2:
		major = qualifying[len(qualifying)-2]
	}

	m := Meta{
		LevelsPresent:   levels,
		MajorLevel:      major,
		SortYearCount:   len(years),
		SortPeriodCount: len(periods),
	}
	// Minor levels are everything present deeper than the primary level.
	// Anchoring on the primary (not strictly the major) level keeps the
	// single-parent-category case stackable.
	if primary := m.PrimaryLevel(); primary > 0 {
		m.MajorCategoryCount = len(catsByLevel[primary])
		for _, l := range levels {
			if l > primary {
				m.MinorLevels = append(m.MinorLevels, l)
			}
		}
	}

	switch {
	case hasPos && hasNeg:
		m.Sign = SignMixed
	case hasNeg:
		m.Sign = SignNegative
	default:
		// Positive by convention for empty and all-zero datasets.
		m.Sign = SignPositive
	}
	return m
}
