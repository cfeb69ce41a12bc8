package profiles

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/careplus/onboarding/clinical"
)

// MergeConditions reconciles inferred conditions with the user's own
// entries. A condition name appears at most once across the union, and an
// inferred entry never overwrites a user-entered entry of the same name.
func MergeConditions(derived clinical.Profile, userConditions []UserCondition) clinical.Profile {
	userNames := mapset.NewSet[string]()
	for _, condition := range userConditions {
		userNames.Add(condition.Name)
	}

	inferred := make(map[string]clinical.Condition, len(derived.InferredConditions))
	for key, condition := range derived.InferredConditions {
		if userNames.Contains(condition.DisplayName) {
			continue
		}
		inferred[key] = condition
	}

	derived.InferredConditions = inferred
	return derived
}
