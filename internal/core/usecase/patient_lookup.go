package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
)

// PatientLookupUseCase resolves patients into renderable clinical reports.
// Not-found and ambiguous conditions are data, not errors; only store
// failures propagate.
type PatientLookupUseCase struct {
	store ports.PatientStore
	now   func() time.Time
}

func NewPatientLookupUseCase(store ports.PatientStore) *PatientLookupUseCase {
	return &PatientLookupUseCase{store: store, now: time.Now}
}

// Lookup resolves by id when given (id takes precedence), otherwise by
// partial case-insensitive name.
func (uc *PatientLookupUseCase) Lookup(ctx context.Context, name string, id int64) (string, error) {
	if id > 0 {
		patient, err := uc.store.GetByID(ctx, id)
		if err != nil {
			if domain.IsKind(err, domain.ErrPatientNotFound) {
				return fmt.Sprintf("No patient exists with ID %d.", id), nil
			}
			return "", fmt.Errorf("lookup patient by id: %w", err)
		}
		return uc.renderReport(ctx, patient)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "Provide a patient name or a numeric ID to search.", nil
	}

	matches, err := uc.store.SearchByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("lookup patient by name: %w", err)
	}

	switch len(matches) {
	case 0:
		return fmt.Sprintf("No patient was found matching the name %q.", name), nil
	case 1:
		return uc.renderReport(ctx, &matches[0])
	default:
		return uc.renderDisambiguation(name, matches), nil
	}
}

func (uc *PatientLookupUseCase) renderDisambiguation(name string, matches []domain.Patient) string {
	now := uc.now()
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d patients matching %q. Please be more specific (mention the ID):\n", len(matches), name)
	for _, p := range matches {
		fmt.Fprintf(&b, " - ID: %d | Name: %s | Age: %d years\n", p.ID, p.FullName, p.Age(now))
	}
	return b.String()
}

func (uc *PatientLookupUseCase) renderReport(ctx context.Context, patient *domain.Patient) (string, error) {
	records, err := uc.store.ListRecords(ctx, patient.ID)
	if err != nil {
		return "", fmt.Errorf("list clinical records: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	now := uc.now()
	medication := patient.CurrentMedication
	if medication == "" {
		medication = "None reported"
	}
	familyHistory := "No"
	if patient.FamilyHistory {
		familyHistory = "Yes"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## PATIENT CHART (ID: %d)\n", patient.ID)
	fmt.Fprintf(&b, "Name: %s\n", patient.FullName)
	fmt.Fprintf(&b, "Age: %d years (%s)\n", patient.Age(now), patient.BirthDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Sex: %s\n", patient.Gender)
	fmt.Fprintf(&b, "Family history of diabetes: %s\n", familyHistory)
	b.WriteString("--------------------------------------------\n")
	b.WriteString("CURRENT STATUS\n")
	fmt.Fprintf(&b, "Base diagnosis: %s\n", patient.Diagnosis)
	fmt.Fprintf(&b, "Medication: %s\n", medication)
	b.WriteString("--------------------------------------------\n")
	b.WriteString("CLINICAL EVOLUTION (history)\n")

	if len(records) == 0 {
		b.WriteString(" (no prior measurements on record)\n")
		return b.String(), nil
	}

	for _, rec := range records {
		fmt.Fprintf(&b, " Date: %s\n", rec.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, " Fasting glucose: %.1f mg/dL\n", rec.FastingGlucose)
		if rec.PostPrandialGlucose != nil {
			fmt.Fprintf(&b, " Post-prandial glucose: %.1f mg/dL\n", *rec.PostPrandialGlucose)
		}
		if rec.HbA1c != nil {
			control := "(controlled)"
			if *rec.HbA1c >= 7.0 {
				control = "(out of target)"
			}
			fmt.Fprintf(&b, " HbA1c: %.1f%% %s\n", *rec.HbA1c, control)
		}
		fmt.Fprintf(&b, " Weight: %.1f kg (BMI: %.2f)\n", rec.WeightKg, rec.BMI())
		if rec.Notes != "" {
			fmt.Fprintf(&b, " Clinical note: %s\n", rec.Notes)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
