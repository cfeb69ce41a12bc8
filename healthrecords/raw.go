package healthrecords

// Raw payload shapes returned by the integrated health-data fetch. Field
// names follow the provider's wire format, which splits checkup dates into
// a "YYYY년" year and a "MM/DD" day component and reports measurements as
// strings.

type RawPayload struct {
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	Checkups    RawCheckupData    `json:"healthCheckupData"`
	Medications RawMedicationData `json:"medicationData"`
}

type RawCheckupData struct {
	ResultList []RawCheckupEntry `json:"ResultList"`
}

type RawCheckupEntry struct {
	Year          string `json:"Year"`
	CheckupDate   string `json:"CheckUpDate"`
	Location      string `json:"Location"`
	Height        string `json:"Height"`
	Weight        string `json:"Weight"`
	Creatinine    string `json:"Creatinine"`
	EGFR          string `json:"GFR"`
	BloodPressure string `json:"BloodPressure"`
	BloodSugar    string `json:"BloodSugar"`
}

type RawMedicationData struct {
	ResultList []RawMedicationEntry `json:"ResultList"`
}

type RawMedicationEntry struct {
	TreatmentType string `json:"JinRyoHyungTae"`
	Name          string `json:"ChoBangYakPumMyung"`
	Description   string `json:"ChoBangYakPumHyoneung"`
}
