package assessment

import "github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"

// DefaultMonetaryTier is used when the decision path names no tier.
const DefaultMonetaryTier = "medium"

// UnassessableDescription marks a tier the playbook does not define.
const UnassessableDescription = "Unable to assess"

// AssessMonetary looks tier up in ranges.  An unknown tier is not an error:
// it yields the [0,0] "Unable to assess" sentinel with no factors.
func AssessMonetary(ranges map[string]legalcase.MonetaryRange, tier string) legalcase.MonetaryAssessment {
	if tier == "" {
		tier = DefaultMonetaryTier
	}
	mr, ok := ranges[tier]
	if !ok {
		return legalcase.MonetaryAssessment{
			Tier:        tier,
			Range:       [2]float64{0, 0},
			Description: UnassessableDescription,
			Factors:     []string{},
		}
	}
	factors := make([]string, len(mr.Factors))
	copy(factors, mr.Factors)
	return legalcase.MonetaryAssessment{
		Tier:        tier,
		Range:       mr.Range,
		Description: mr.Description,
		Factors:     factors,
	}
}

//Personal.AI order the ending
