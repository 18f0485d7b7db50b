package domain

import (
	"math"
	"time"
)

type Patient struct {
	ID                int64     `json:"id"`
	FullName          string    `json:"full_name"`
	BirthDate         time.Time `json:"birth_date"`
	Gender            string    `json:"gender"`
	FamilyHistory     bool      `json:"family_history"`
	Diagnosis         string    `json:"diagnosis"`
	CurrentMedication string    `json:"current_medication,omitempty"`
}

// Age computes full years at the given reference date.
func (p Patient) Age(at time.Time) int {
	years := at.Year() - p.BirthDate.Year()
	if at.Month() < p.BirthDate.Month() ||
		(at.Month() == p.BirthDate.Month() && at.Day() < p.BirthDate.Day()) {
		years--
	}
	return years
}

type ClinicalRecord struct {
	ID                  int64     `json:"id"`
	PatientID           int64     `json:"patient_id"`
	Date                time.Time `json:"date"`
	FastingGlucose      float64   `json:"fasting_glucose"`
	PostPrandialGlucose *float64  `json:"post_prandial_glucose,omitempty"`
	HbA1c               *float64  `json:"hba1c,omitempty"`
	WeightKg            float64   `json:"weight_kg"`
	HeightCm            float64   `json:"height_cm"`
	WaistCircumference  *float64  `json:"waist_circumference,omitempty"`
	Notes               string    `json:"notes,omitempty"`
}

// BMI derives body-mass index from weight and height, rounded to two
// decimals. Zero height yields zero rather than a division error.
func (r ClinicalRecord) BMI() float64 {
	if r.HeightCm <= 0 {
		return 0
	}
	heightM := r.HeightCm / 100
	return math.Round(r.WeightKg/(heightM*heightM)*100) / 100
}
