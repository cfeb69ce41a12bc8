package enrollment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	errs "github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/verification"
)

// StartParams carries everything a patient submits on the registration
// screen. Credentials are hashed and the identity fields normalized before
// anything is persisted.
type StartParams struct {
	AccountID   string  `json:"accountId"`
	Password    string  `json:"password"`
	LegalName   string  `json:"legalName"`
	BirthDate   string  `json:"birthDate"`
	PhoneNumber string  `json:"phoneNumber"`
	Gender      string  `json:"gender"`
	HeightCm    float64 `json:"heightCm"`
	WeightKg    float64 `json:"weightKg"`
}

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// ExpandBirthDate turns a 6-digit resident-registration style birth date
// into the full 8-digit calendar date the verification provider expects.
// Two-digit years above 50 belong to the 1900s, the rest to the 2000s.
// Full 8-digit dates pass through unchanged.
func ExpandBirthDate(raw string) (string, error) {
	date := digitsOnly.ReplaceAllString(raw, "")
	switch len(date) {
	case 8:
		return date, nil
	case 6:
		yy, err := strconv.Atoi(date[:2])
		if err != nil {
			return "", fmt.Errorf("%w: invalid birth date %q", errs.BadRequest, raw)
		}
		century := 2000
		if yy > 50 {
			century = 1900
		}
		return fmt.Sprintf("%d%s", century+yy, date[2:]), nil
	default:
		return "", fmt.Errorf("%w: birth date must have 6 or 8 digits", errs.BadRequest)
	}
}

// NormalizePhoneNumber strips formatting and requires the 11-digit mobile
// format the verification provider accepts.
func NormalizePhoneNumber(raw string) (string, error) {
	number := digitsOnly.ReplaceAllString(raw, "")
	if len(number) != 11 || !strings.HasPrefix(number, "01") {
		return "", fmt.Errorf("%w: phone number must be an 11-digit mobile number", errs.BadRequest)
	}
	return number, nil
}

func (p StartParams) identity() (verification.Identity, error) {
	if strings.TrimSpace(p.LegalName) == "" {
		return verification.Identity{}, fmt.Errorf("%w: legal name is required", errs.BadRequest)
	}

	birthDate, err := ExpandBirthDate(p.BirthDate)
	if err != nil {
		return verification.Identity{}, err
	}
	phoneNumber, err := NormalizePhoneNumber(p.PhoneNumber)
	if err != nil {
		return verification.Identity{}, err
	}

	return verification.Identity{
		LegalName:   strings.TrimSpace(p.LegalName),
		BirthDate:   birthDate,
		PhoneNumber: phoneNumber,
	}, nil
}

func (p StartParams) anthropometrics() (profiles.Anthropometrics, error) {
	switch p.Gender {
	case "male", "female":
	default:
		return profiles.Anthropometrics{}, fmt.Errorf("%w: gender must be male or female", errs.BadRequest)
	}
	if p.HeightCm < 100 || p.HeightCm > 250 {
		return profiles.Anthropometrics{}, fmt.Errorf("%w: height must be between 100 and 250 cm", errs.BadRequest)
	}
	if p.WeightKg < 30 || p.WeightKg > 200 {
		return profiles.Anthropometrics{}, fmt.Errorf("%w: weight must be between 30 and 200 kg", errs.BadRequest)
	}

	return profiles.Anthropometrics{
		Gender:   p.Gender,
		HeightCm: p.HeightCm,
		WeightKg: p.WeightKg,
	}, nil
}
