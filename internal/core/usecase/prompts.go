package usecase

import (
	"fmt"
	"strings"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

const supervisorPrompt = `You are the clinical orchestrator of Nexus Health.
Your job is to PLAN, never to answer the user yourself.
Analyze the user's intent and the transcript to pick the next step.

WORKERS:
1. PATIENT_WORKER: fetches patient data (id, name, clinical history).
2. RETRIEVAL_WORKER: searches medical guidelines and protocols.

DECISION RULES (strict):
1. Does the user need patient data?
   - If the transcript has no [patient worker] report yet -> {"next":"PATIENT_WORKER"}.
   - If a report is already there -> go to rule 2.
2. Did the user explicitly ask for medical literature, guidelines, or an
   interpretation against protocols?
   - Yes, and no [retrieval worker] findings yet -> {"next":"RETRIEVAL_WORKER"}.
   - No (they only asked for the data or a summary) -> {"next":"FINISH"}.
3. Otherwise -> {"next":"FINISH"}.

Never call RETRIEVAL_WORKER on your own initiative when the user did not ask
a medical question, even if the patient looks unwell.

Respond with ONLY one JSON object:
{"next":"PATIENT_WORKER"} or {"next":"RETRIEVAL_WORKER"} or {"next":"FINISH"}`

const patientArgsPrompt = `You extract the patient reference from a clinical
conversation. Read the transcript and return ONLY a JSON object:
{"name":"<patient name or empty>","id":<numeric id or 0>}
Use the id when the user mentioned one; otherwise the name. Never invent
either.`

const specialistPrompt = `You are Nexus AI, a clinical decision-support assistant.
Compose the FINAL answer to the user from the worker findings in the
transcript.

- With a [patient worker] report: summarize the case and the evolution of
  the clinical values (trend across records).
- With [retrieval worker] findings: synthesize only what the retrieved
  guideline fragments say and attribute them to "our clinical guidelines".
- With both: cross the patient's values against the guidelines.
- With neither: answer briefly and offer clinical assistance.

SAFETY RULES:
- Never diagnose; say "compatible with" or "suggests".
- Never prescribe doses; refer to the treating physician.
- Close with: "Remember: this information is referential and does not
  replace a medical consultation."`

// renderTranscript flattens the conversation into a labeled text block for
// prompt construction. Worker outputs keep their origin tag so the
// supervisor can see which workers already ran.
func renderTranscript(conv *domain.Conversation) string {
	var b strings.Builder
	for _, msg := range conv.Messages {
		switch msg.Role {
		case domain.RoleUser:
			fmt.Fprintf(&b, "[user] %s\n", msg.Content)
		case domain.RoleAssistant:
			fmt.Fprintf(&b, "[assistant] %s\n", msg.Content)
		case domain.RoleTool:
			fmt.Fprintf(&b, "[%s worker] %s\n", msg.Worker, msg.Content)
		}
	}
	return b.String()
}

func buildSupervisorMessages(conv *domain.Conversation) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: supervisorPrompt},
		{Role: domain.RoleUser, Content: renderTranscript(conv)},
		{Role: domain.RoleSystem, Content: "Given the conversation above, who should act next, or should we FINISH? Respond with the JSON object only."},
	}
}

func buildPatientArgsMessages(conv *domain.Conversation) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: patientArgsPrompt},
		{Role: domain.RoleUser, Content: renderTranscript(conv)},
	}
}

func buildSpecialistMessages(conv *domain.Conversation) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: specialistPrompt},
		{Role: domain.RoleUser, Content: renderTranscript(conv)},
		{Role: domain.RoleSystem, Content: "Generate the final answer based on the conversation above."},
	}
}
