package healthrecords

// CanonicalHealthRecord is the provider-agnostic view of a patient's
// insurance-held health data. CheckupEvents is ordered most-recent-first
// and medications are unique by display name.
type CanonicalHealthRecord struct {
	CheckupEvents []CheckupEvent `json:"checkupEvents"`
	Medications   []Medication   `json:"medications"`
}

type CheckupEvent struct {
	// Date is a sortable "YYYY.MM.DD" string reconstructed from the
	// provider's split year and month/day fields.
	Date         string       `json:"date"`
	LocationName string       `json:"locationName"`
	Measurements Measurements `json:"measurements"`
}

// Measurements holds the values captured during a checkup. A nil field
// means the provider did not report it; absent values are never defaulted
// to zero.
type Measurements struct {
	HeightCm      *float64 `json:"heightCm,omitempty"`
	WeightKg      *float64 `json:"weightKg,omitempty"`
	Creatinine    *float64 `json:"creatinine,omitempty"`
	EGFR          *float64 `json:"eGFR,omitempty"`
	BloodPressure *string  `json:"bloodPressure,omitempty"`
	BloodSugar    *float64 `json:"bloodSugar,omitempty"`
}

type Medication struct {
	DisplayName    string `json:"displayName"`
	RawDescription string `json:"rawDescription"`
}

// HasCheckups reports whether the provider returned any checkup entries.
// An empty sequence is valid and surfaces as "no checkup on record".
func (r *CanonicalHealthRecord) HasCheckups() bool {
	return len(r.CheckupEvents) > 0
}

// LatestCheckup returns the most recent checkup event, or nil when the
// record holds none.
func (r *CanonicalHealthRecord) LatestCheckup() *CheckupEvent {
	if len(r.CheckupEvents) == 0 {
		return nil
	}
	return &r.CheckupEvents[0]
}
