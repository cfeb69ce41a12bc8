package clinical

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RulesPath points to a JSON rules document. When empty the built-in
	// table is used.
	RulesPath string `envconfig:"CAREPLUS_CLINICAL_RULES_PATH"`
}

func NewConfig() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Rules is the derivation engine's only configuration surface. The matching
// logic never changes when the tables do; updating the deployed JSON
// document is enough to pick up new medications.
type Rules struct {
	DialysisKeywords []string        `json:"dialysisKeywords"`
	Conditions       []ConditionRule `json:"conditions"`
}

// ConditionRule maps a stable condition key to the medication-name keywords
// that imply it.
type ConditionRule struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Keywords    []string `json:"keywords"`
}

// DefaultRules returns the built-in keyword tables.
func DefaultRules() Rules {
	return Rules{
		DialysisKeywords: []string{"투석", "혈액투석", "복막투석", "dialysis"},
		Conditions: []ConditionRule{
			{
				Key:         "hypertension",
				DisplayName: "고혈압",
				Keywords:    []string{"암로디핀", "로사르탄", "텔미사르탄"},
			},
			{
				Key:         "diabetes",
				DisplayName: "당뇨병",
				Keywords:    []string{"메트포르민", "글리메피리드", "시타글립틴"},
			},
		},
	}
}

// NewRules loads the rules document referenced by the config, falling back
// to the built-in tables when no path is configured.
func NewRules(cfg Config) (Rules, error) {
	if cfg.RulesPath == "" {
		return DefaultRules(), nil
	}

	raw, err := os.ReadFile(cfg.RulesPath)
	if err != nil {
		return Rules{}, fmt.Errorf("error reading clinical rules from %q: %w", cfg.RulesPath, err)
	}

	rules := Rules{}
	if err := json.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("error decoding clinical rules from %q: %w", cfg.RulesPath, err)
	}

	return rules, nil
}
