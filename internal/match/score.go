// Package match ranks catalog items by how well they would exchange for a
// given target item.
package match

import (
	"fmt"

	"github.com/erazemk/menjava/internal/model"
)

// Rule identifies the scoring rule that produced a reason.
type Rule int

// Rules, in the order they are evaluated.
const (
	RuleSharedTags Rule = iota + 1
	RuleSameGroup
	RuleIdenticalCondition
	RuleSimilarCondition
	RuleSimilarYear
)

var ruleNames = map[Rule]string{
	RuleSharedTags:         "shared_tags",
	RuleSameGroup:          "same_group",
	RuleIdenticalCondition: "identical_condition",
	RuleSimilarCondition:   "similar_condition",
	RuleSimilarYear:        "similar_year",
}

func (r Rule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// MarshalText encodes the rule by name.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Point weights.
const (
	PointsPerSharedTag     = 10
	PointsSameGroup        = 25
	PointsIdenticalCond    = 15
	PointsSimilarCond      = 10
	PointsSimilarYear      = 10
	MaxYearDistanceSimilar = 2
)

// Reason explains one contribution to a score.
type Reason struct {
	Rule   Rule   `json:"rule"`
	Detail string `json:"detail"`
}

func (r Reason) String() string { return r.Detail }

// Result is a scored candidate.
type Result struct {
	Item    model.Item `json:"item"`
	Score   int        `json:"score"`
	Reasons []Reason   `json:"reasons"`
}

// Rules reports the rule identifiers in the order they fired.
func (r Result) Rules() []Rule {
	rules := make([]Rule, len(r.Reasons))
	for i, reason := range r.Reasons {
		rules[i] = reason.Rule
	}
	return rules
}

// Score computes how compatible candidate is as an exchange for target.
// Callers are expected to pass a candidate with a different owner that is
// still available; Score does not check either.
func Score(target, candidate model.Item) Result {
	res := Result{Item: candidate, Reasons: []Reason{}}

	if n := sharedTags(target.Tags, candidate.Tags); n > 0 {
		res.add(RuleSharedTags, n*PointsPerSharedTag, fmt.Sprintf("%d shared tags", n))
	}

	if target.GroupCode != "" && target.GroupCode == candidate.GroupCode {
		res.add(RuleSameGroup, PointsSameGroup, "Same group "+target.GroupCode)
	}

	tr, tok := target.Condition.Rank()
	cr, cok := candidate.Condition.Rank()
	if tok && cok {
		switch abs(tr - cr) {
		case 0:
			res.add(RuleIdenticalCondition, PointsIdenticalCond, "Identical condition")
		case 1:
			res.add(RuleSimilarCondition, PointsSimilarCond, "Similar condition")
		}
	}

	if target.Year != 0 && candidate.Year != 0 && abs(target.Year-candidate.Year) <= MaxYearDistanceSimilar {
		res.add(RuleSimilarYear, PointsSimilarYear, "Similar publication year")
	}

	return res
}

func (r *Result) add(rule Rule, points int, detail string) {
	r.Score += points
	r.Reasons = append(r.Reasons, Reason{Rule: rule, Detail: detail})
}

// sharedTags counts distinct tags present in both sets.
func sharedTags(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inA := make(map[string]bool, len(a))
	for _, t := range a {
		inA[t] = true
	}
	n := 0
	for _, t := range b {
		if inA[t] {
			n++
			delete(inA, t)
		}
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
