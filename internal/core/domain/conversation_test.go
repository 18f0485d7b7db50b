package domain

import "testing"

func TestParseRoute(t *testing.T) {
	cases := []struct {
		in   string
		want Route
		ok   bool
	}{
		{"RETRIEVAL_WORKER", RouteRetrievalWorker, true},
		{"PATIENT_WORKER", RoutePatientWorker, true},
		{"FINISH", RouteFinish, true},
		{"finish", RouteFinish, false},
		{"DOCS_AGENT", RouteFinish, false},
		{"", RouteFinish, false},
	}
	for _, tc := range cases {
		got, ok := ParseRoute(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseRoute(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLastFromWorkerPicksMostRecent(t *testing.T) {
	conv := NewConversation("c1")
	conv.Append(Message{Role: RoleUser, Content: "hola"})
	conv.Append(Message{Role: RoleTool, Worker: WorkerPatient, Content: "first report"})
	conv.Append(Message{Role: RoleTool, Worker: WorkerRetrieval, Content: "findings"})
	conv.Append(Message{Role: RoleTool, Worker: WorkerPatient, Content: "second report"})

	msg, ok := conv.LastFromWorker(WorkerPatient)
	if !ok || msg.Content != "second report" {
		t.Fatalf("unexpected message: %+v ok=%v", msg, ok)
	}
	if _, ok := NewConversation("c2").LastFromWorker(WorkerPatient); ok {
		t.Fatalf("empty conversation must report no worker message")
	}
}

func TestLastUserMessage(t *testing.T) {
	conv := NewConversation("c1")
	if got := conv.LastUserMessage(); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	conv.Append(Message{Role: RoleUser, Content: "primera"})
	conv.Append(Message{Role: RoleAssistant, Content: "respuesta"})
	conv.Append(Message{Role: RoleUser, Content: "segunda"})
	if got := conv.LastUserMessage(); got != "segunda" {
		t.Fatalf("expected latest user message, got %q", got)
	}
}
