package clinical

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/careplus/onboarding/healthrecords"
)

// Profile holds the clinical indicators derived from a canonical health
// record. Derivation is pure: the same record and rules always produce an
// identical profile, which keeps resumed sessions idempotent.
type Profile struct {
	KidneyStage            int                  `json:"kidneyStage"`
	KidneyStageDescription string               `json:"kidneyStageDescription"`
	IsOnDialysis           bool                 `json:"isOnDialysis"`
	InferredConditions     map[string]Condition `json:"inferredConditions"`
}

type Condition struct {
	DisplayName string `json:"displayName"`
	// SupportingMedicationNames lists every medication whose name matched
	// one of the condition's keywords, sorted for stable output.
	SupportingMedicationNames []string `json:"supportingMedicationNames"`
}

// Derive computes the clinical profile for a canonical record. The kidney
// stage comes from the most recent checkup's eGFR; dialysis status and
// chronic conditions come from keyword matches over the medication list.
func Derive(rules Rules, record *healthrecords.CanonicalHealthRecord) Profile {
	var egfr *float64
	if latest := record.LatestCheckup(); latest != nil {
		egfr = latest.Measurements.EGFR
	}

	stage := KidneyStage(egfr)
	return Profile{
		KidneyStage:            stage,
		KidneyStageDescription: StageDescription(stage),
		IsOnDialysis:           detectDialysis(rules.DialysisKeywords, record.Medications),
		InferredConditions:     inferConditions(rules.Conditions, record.Medications),
	}
}

// EmptyProfile is the deterministic fallback used when no health data is
// available: unknown kidney stage and no inferred conditions.
func EmptyProfile() Profile {
	return Profile{
		KidneyStage:            0,
		KidneyStageDescription: StageDescription(0),
		IsOnDialysis:           false,
		InferredConditions:     map[string]Condition{},
	}
}

// KidneyStage classifies eGFR (mL/min/1.73m²) into chronic-kidney-disease
// stages 1–5. An unknown eGFR maps to stage 0.
func KidneyStage(egfr *float64) int {
	if egfr == nil {
		return 0
	}
	switch {
	case *egfr >= 90:
		return 1
	case *egfr >= 60:
		return 2
	case *egfr >= 30:
		return 3
	case *egfr >= 15:
		return 4
	default:
		return 5
	}
}

func StageDescription(stage int) string {
	switch stage {
	case 1:
		return "정상 또는 경미한 손상"
	case 2:
		return "경도 감소"
	case 3:
		return "중등도 감소"
	case 4:
		return "중증 감소"
	case 5:
		return "신부전"
	default:
		return "정보 없음"
	}
}

func detectDialysis(keywords []string, medications []healthrecords.Medication) bool {
	for _, medication := range medications {
		name := strings.ToLower(medication.DisplayName)
		description := strings.ToLower(medication.RawDescription)
		for _, keyword := range keywords {
			keyword = strings.ToLower(keyword)
			if strings.Contains(name, keyword) || strings.Contains(description, keyword) {
				return true
			}
		}
	}
	return false
}

func inferConditions(rules []ConditionRule, medications []healthrecords.Medication) map[string]Condition {
	conditions := make(map[string]Condition)

	for _, rule := range rules {
		supporting := mapset.NewSet[string]()
		for _, medication := range medications {
			for _, keyword := range rule.Keywords {
				if strings.Contains(medication.DisplayName, keyword) {
					supporting.Add(medication.DisplayName)
					break
				}
			}
		}
		if supporting.Cardinality() == 0 {
			continue
		}

		names := supporting.ToSlice()
		sort.Strings(names)
		conditions[rule.Key] = Condition{
			DisplayName:               rule.DisplayName,
			SupportingMedicationNames: names,
		}
	}

	return conditions
}
