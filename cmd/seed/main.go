package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexushealth/clinical-assistant/internal/bootstrap"
	"github.com/nexushealth/clinical-assistant/internal/config"
	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/observability/logging"
)

// seed loads the demo clinic: a handful of patients with clinical history
// and a small Spanish-language knowledge base embedded for retrieval.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	existing, err := app.Documents.ListAll(ctx)
	if err != nil {
		logger.Error("seed_check_failed", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		logger.Info("seed_skipped", "reason", "knowledge base already populated", "documents", len(existing))
		return
	}

	if err := seedPatients(ctx, app); err != nil {
		logger.Error("seed_patients_failed", "error", err)
		os.Exit(1)
	}
	if err := seedKnowledgeBase(ctx, app); err != nil {
		logger.Error("seed_documents_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed_completed")
}

func seedPatients(ctx context.Context, app *bootstrap.App) error {
	ptr := func(v float64) *float64 { return &v }
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	patients := []struct {
		patient domain.Patient
		records []domain.ClinicalRecord
	}{
		{
			patient: domain.Patient{
				FullName:      "Carlos Mamani",
				BirthDate:     date(1961, 3, 14),
				Gender:        "M",
				FamilyHistory: true,
				Diagnosis:     "Diabetes Tipo 2",
			},
			records: []domain.ClinicalRecord{
				{
					Date:           date(2025, 2, 10),
					FastingGlucose: 158,
					HbA1c:          ptr(8.2),
					WeightKg:       84.0,
					HeightCm:       171,
					Notes:          "Se ajusta dosis de metformina.",
				},
				{
					Date:                date(2025, 6, 18),
					FastingGlucose:      134,
					PostPrandialGlucose: ptr(182),
					HbA1c:               ptr(7.4),
					WeightKg:            81.5,
					HeightCm:            171,
					Notes:               "Mejora tras cambio de dieta.",
				},
			},
		},
		{
			patient: domain.Patient{
				FullName:      "Carlos Mamani",
				BirthDate:     date(1988, 11, 2),
				Gender:        "M",
				FamilyHistory: false,
				Diagnosis:     "Prediabetes",
			},
			records: []domain.ClinicalRecord{
				{
					Date:           date(2025, 5, 5),
					FastingGlucose: 108,
					WeightKg:       92.3,
					HeightCm:       178,
					Notes:          "Se indica actividad fisica regular.",
				},
			},
		},
		{
			patient: domain.Patient{
				FullName:          "Juana Quispe",
				BirthDate:         date(1968, 4, 12),
				Gender:            "F",
				FamilyHistory:     true,
				Diagnosis:         "Diabetes Tipo 2",
				CurrentMedication: "Metformina 850mg",
			},
			records: []domain.ClinicalRecord{
				{
					Date:               date(2025, 3, 20),
					FastingGlucose:     121,
					HbA1c:              ptr(6.8),
					WeightKg:           72.5,
					HeightCm:           158,
					WaistCircumference: ptr(94),
					Notes:              "Control trimestral, buena adherencia.",
				},
			},
		},
		{
			patient: domain.Patient{
				FullName:      "Roberto Vaca",
				BirthDate:     date(1975, 8, 30),
				Gender:        "M",
				FamilyHistory: false,
				Diagnosis:     "Hipertension arterial",
			},
			records: []domain.ClinicalRecord{
				{
					Date:           date(2025, 1, 14),
					FastingGlucose: 96,
					WeightKg:       88.0,
					HeightCm:       175,
					Notes:          "Presion controlada con enalapril.",
				},
			},
		},
	}

	for _, entry := range patients {
		id, err := app.PatientWriter.InsertPatient(ctx, entry.patient)
		if err != nil {
			return err
		}
		for _, rec := range entry.records {
			rec.PatientID = id
			if _, err := app.PatientWriter.InsertRecord(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedKnowledgeBase(ctx context.Context, app *bootstrap.App) error {
	docs := []domain.Document{
		{
			Title:  "Diabetes Tipo 2: diagnostico y metas",
			Source: "guia-clinica",
			Content: "La diabetes tipo 2 se diagnostica con glucosa en ayunas mayor o igual a 126 mg/dL " +
				"en dos determinaciones, o HbA1c mayor o igual a 6.5%. La meta de control para la mayoria " +
				"de los adultos es una HbA1c menor a 7.0%. Valores de glucosa en ayunas entre 100 y 125 mg/dL " +
				"corresponden a prediabetes.",
		},
		{
			Title:  "Manejo de la glucosa alta en ayunas",
			Source: "guia-clinica",
			Content: "Ante glucosa alta en ayunas se recomienda confirmar con una segunda medicion, evaluar " +
				"HbA1c y descartar causas transitorias. El tratamiento inicial incluye cambios de alimentacion, " +
				"actividad fisica regular y, si persiste, metformina como primera linea.",
		},
		{
			Title:  "Seguimiento y controles del paciente diabetico",
			Source: "guia-clinica",
			Content: "El paciente con diabetes tipo 2 debe tener control de HbA1c cada tres meses hasta alcanzar " +
				"la meta y luego cada seis meses. En cada control se evalua peso, indice de masa corporal, " +
				"presion arterial y adherencia al tratamiento. Se recomienda fondo de ojo y perfil renal anual.",
		},
	}

	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Title+"\n"+doc.Content)
	}
	vectors, err := app.Embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return err
	}

	for i, doc := range docs {
		if i < len(vectors) {
			doc.Embedding = vectors[i]
		}
		if _, err := app.DocumentWriter.Insert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
