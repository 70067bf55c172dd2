package chart

import "sort"

// Eligibility is the outcome of evaluating one chart type against the meta
// summary. An ineligible result lists every violated requirement, never just
// the first, so the UI can present all of them at once.
type Eligibility struct {
	ChartType Type     `json:"chart_type"`
	Eligible  bool     `json:"eligible"`
	Reasons   []string `json:"reasons,omitempty"`
	RuleKeys  []string `json:"rule_keys,omitempty"`
}

// requirement binds one name of the fixed eligibility vocabulary to its
// failure key and its predicate over the meta summary. The predicate
// reports whether the requirement FAILS.
type requirement struct {
	name       string
	failKey    string
	defaultMsg string
	fails      func(Meta) bool
}

// The vocabulary is fixed and total: configuration may enable any subset,
// and evaluation walks it in this order so reason lists are deterministic.
var requirements = []requirement{
	{
		name: "requires_major_level", failKey: "no_major_level",
		defaultMsg: "Insufficient number of distinct categories",
		fails:      func(m Meta) bool { return !m.HasMajorLevel() },
	},
	{
		name: "requires_minor_levels", failKey: "no_minor_levels",
		defaultMsg: "No minor levels are present",
		fails:      func(m Meta) bool { return len(m.MinorLevels) == 0 },
	},
	{
		name: "forbids_minor_levels", failKey: "minor_levels_present",
		defaultMsg: "Minor levels are present",
		fails:      func(m Meta) bool { return len(m.MinorLevels) > 0 },
	},
	{
		name: "requires_single_year", failKey: "multiple_years",
		defaultMsg: "Multiple years are present",
		fails:      func(m Meta) bool { return m.SortYearCount != 1 },
	},
	{
		name: "requires_single_period", failKey: "multiple_periods",
		defaultMsg: "Multiple periods are present",
		fails:      func(m Meta) bool { return m.SortPeriodCount != 1 },
	},
	{
		name: "requires_multiple_periods", failKey: "single_period",
		defaultMsg: "More than one period is required",
		fails:      func(m Meta) bool { return !m.MultiplePeriods() },
	},
	{
		name: "requires_same_sign", failKey: "mixed_sign",
		defaultMsg: "Mixed positive and negative values are present",
		fails:      func(m Meta) bool { return m.Sign == SignMixed },
	},
}

// Evaluate checks every requirement the configuration enables for the chart
// type against the meta summary. Evaluation never short-circuits. A nil
// Config or a missing chart-type entry is itself an ineligibility ("chart
// configuration not found"), never a crash.
func Evaluate(t Type, meta Meta, cfg *Config) Eligibility {
	tc, ok := cfg.Type(t)
	if !ok {
		return Eligibility{
			ChartType: t,
			Reasons:   []string{ErrConfigNotFound.Error()},
			RuleKeys:  []string{"configuration_not_found"},
		}
	}

	result := Eligibility{ChartType: t}
	known := make(map[string]struct{}, len(requirements))
	for _, req := range requirements {
		known[req.name] = struct{}{}
		if !tc.Eligibility[req.name] {
			continue
		}
		if !req.fails(meta) {
			continue
		}
		msg := tc.DisallowedReasons[req.failKey]
		if msg == "" {
			msg = req.defaultMsg
		}
		result.Reasons = append(result.Reasons, msg)
		result.RuleKeys = append(result.RuleKeys, req.failKey)
	}

	// Enabled requirements outside the vocabulary degrade to an
	// ineligibility reason rather than silently passing.
	var unknown []string
	for name, enabled := range tc.Eligibility {
		if _, ok := known[name]; enabled && !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		result.Reasons = append(result.Reasons, "unknown eligibility requirement "+name)
		result.RuleKeys = append(result.RuleKeys, "unknown_requirement")
	}

	result.Eligible = len(result.Reasons) == 0
	return result
}
