package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

// PatientStore reads patients and their clinical history.
type PatientStore struct {
	db *sql.DB
}

func NewPatientStore(db *sql.DB) *PatientStore {
	return &PatientStore{db: db}
}

const patientColumns = "id, full_name, birth_date, gender, family_history, diagnosis, current_medication"

func (s *PatientStore) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)

	patient, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrPatientNotFound, "get patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	return patient, nil
}

func (s *PatientStore) SearchByName(ctx context.Context, name string) ([]domain.Patient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patientColumns+`
		 FROM patients
		 WHERE full_name ILIKE '%' || $1 || '%'
		 ORDER BY id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var patients []domain.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, *patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

func (s *PatientStore) ListRecords(ctx context.Context, patientID int64) ([]domain.ClinicalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, patient_id, record_date, fasting_glucose, post_prandial_glucose,
		        hba1c, weight_kg, height_cm, waist_circumference, notes
		 FROM clinical_records
		 WHERE patient_id = $1
		 ORDER BY record_date`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.ClinicalRecord
	for rows.Next() {
		var rec domain.ClinicalRecord
		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.Date, &rec.FastingGlucose, &rec.PostPrandialGlucose,
			&rec.HbA1c, &rec.WeightKg, &rec.HeightCm, &rec.WaistCircumference, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// InsertPatient and InsertRecord back the seed command.
func (s *PatientStore) InsertPatient(ctx context.Context, patient domain.Patient) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO patients (full_name, birth_date, gender, family_history, diagnosis, current_medication)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		patient.FullName, patient.BirthDate, patient.Gender,
		patient.FamilyHistory, patient.Diagnosis, patient.CurrentMedication,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return id, nil
}

func (s *PatientStore) InsertRecord(ctx context.Context, rec domain.ClinicalRecord) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO clinical_records
		   (patient_id, record_date, fasting_glucose, post_prandial_glucose,
		    hba1c, weight_kg, height_cm, waist_circumference, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		rec.PatientID, rec.Date, rec.FastingGlucose, rec.PostPrandialGlucose,
		rec.HbA1c, rec.WeightKg, rec.HeightCm, rec.WaistCircumference, rec.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*domain.Patient, error) {
	var patient domain.Patient
	err := row.Scan(
		&patient.ID, &patient.FullName, &patient.BirthDate, &patient.Gender,
		&patient.FamilyHistory, &patient.Diagnosis, &patient.CurrentMedication,
	)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}
