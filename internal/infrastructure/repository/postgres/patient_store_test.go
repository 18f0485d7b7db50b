package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

var patientCols = []string{"id", "full_name", "birth_date", "gender", "family_history", "diagnosis", "current_medication"}

func TestGetPatientByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	birth := time.Date(1968, 4, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM patients WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(patientCols).
			AddRow(int64(3), "Juana Quispe", birth, "F", true, "Diabetes Tipo 2", "Metformina 850mg"))

	store := NewPatientStore(db)
	patient, err := store.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if patient.FullName != "Juana Quispe" || !patient.FamilyHistory {
		t.Fatalf("unexpected patient: %+v", patient)
	}
}

func TestGetPatientByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM patients WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(patientCols))

	store := NewPatientStore(db)
	_, err = store.GetByID(context.Background(), 42)
	if !domain.IsKind(err, domain.ErrPatientNotFound) {
		t.Fatalf("expected patient-not-found kind, got %v", err)
	}
}

func TestSearchByNameReturnsAllMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	birth := time.Date(1955, 9, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM patients\s+WHERE full_name ILIKE`).
		WithArgs("Carlos Mamani").
		WillReturnRows(sqlmock.NewRows(patientCols).
			AddRow(int64(1), "Carlos Mamani", birth, "M", false, "Prediabetes", "").
			AddRow(int64(4), "Carlos Mamani", birth.AddDate(22, 0, 0), "M", true, "Diabetes Tipo 2", "Insulina"))

	store := NewPatientStore(db)
	patients, err := store.SearchByName(context.Background(), "Carlos Mamani")
	if err != nil {
		t.Fatalf("SearchByName: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(patients))
	}
	if patients[0].ID != 1 || patients[1].ID != 4 {
		t.Fatalf("unexpected order: %+v", patients)
	}
}

func TestListRecordsScansOptionalColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM clinical_records\s+WHERE patient_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "patient_id", "record_date", "fasting_glucose", "post_prandial_glucose",
			"hba1c", "weight_kg", "height_cm", "waist_circumference", "notes",
		}).
			AddRow(int64(10), int64(3), date, 126.0, nil, 6.8, 72.5, 158.0, nil, "control trimestral"))

	store := NewPatientStore(db)
	records, err := store.ListRecords(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.PostPrandialGlucose != nil {
		t.Fatalf("expected nil post-prandial glucose")
	}
	if rec.HbA1c == nil || *rec.HbA1c != 6.8 {
		t.Fatalf("unexpected hba1c: %v", rec.HbA1c)
	}
	if rec.BMI() != 29.04 {
		t.Fatalf("unexpected BMI: %v", rec.BMI())
	}
}
