package healthrecords

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PrescriptionDispensing is the treatment type of medication entries that
// were actually dispensed by a pharmacy. Entries reporting a different
// treatment type are consultation records, not medications.
const PrescriptionDispensing = "처방조제"

// MalformedRecordError reports a provider field that was present but could
// not be parsed as a number. The enclosing stage fails but the raw payload
// is retained so normalization can be retried on its own.
type MalformedRecordError struct {
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed health record: field %q is not numeric", e.Field)
}

// Normalize converts a raw provider payload into the canonical record.
// A payload with no checkup entries yields an empty event sequence, not an
// error; downstream consumers mark it as "no checkup on record".
func Normalize(payload *RawPayload) (*CanonicalHealthRecord, error) {
	record := &CanonicalHealthRecord{
		CheckupEvents: []CheckupEvent{},
		Medications:   []Medication{},
	}

	for _, entry := range payload.Checkups.ResultList {
		event, err := normalizeCheckup(entry)
		if err != nil {
			return nil, err
		}
		record.CheckupEvents = append(record.CheckupEvents, *event)
	}

	sort.SliceStable(record.CheckupEvents, func(i, j int) bool {
		return record.CheckupEvents[i].Date > record.CheckupEvents[j].Date
	})

	seen := make(map[string]struct{})
	for _, entry := range payload.Medications.ResultList {
		if entry.TreatmentType != "" && entry.TreatmentType != PrescriptionDispensing {
			continue
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		// first-seen raw description wins
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		record.Medications = append(record.Medications, Medication{
			DisplayName:    name,
			RawDescription: entry.Description,
		})
	}

	return record, nil
}

func normalizeCheckup(entry RawCheckupEntry) (*CheckupEvent, error) {
	event := &CheckupEvent{
		Date:         reconstructDate(entry.Year, entry.CheckupDate),
		LocationName: entry.Location,
	}

	var err error
	if event.Measurements.HeightCm, err = parseMeasurement("Height", entry.Height); err != nil {
		return nil, err
	}
	if event.Measurements.WeightKg, err = parseMeasurement("Weight", entry.Weight); err != nil {
		return nil, err
	}
	if event.Measurements.Creatinine, err = parseMeasurement("Creatinine", entry.Creatinine); err != nil {
		return nil, err
	}
	if event.Measurements.EGFR, err = parseMeasurement("GFR", entry.EGFR); err != nil {
		return nil, err
	}
	if event.Measurements.BloodSugar, err = parseMeasurement("BloodSugar", entry.BloodSugar); err != nil {
		return nil, err
	}
	if bp := strings.TrimSpace(entry.BloodPressure); bp != "" {
		event.Measurements.BloodPressure = &bp
	}

	return event, nil
}

// reconstructDate combines the provider's "YYYY년" year field with the
// "MM/DD" day field into a single sortable "YYYY.MM.DD" string.
func reconstructDate(year, monthDay string) string {
	year = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(year), "년"))
	monthDay = strings.ReplaceAll(strings.TrimSpace(monthDay), "/", ".")

	switch {
	case year == "" && monthDay == "":
		return ""
	case year == "":
		return monthDay
	case monthDay == "":
		return year
	}
	return year + "." + monthDay
}

func parseMeasurement(field, value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, &MalformedRecordError{Field: field}
	}
	return &parsed, nil
}
