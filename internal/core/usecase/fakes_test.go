package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type generatorReply struct {
	out string
	err error
}

// fakeGenerator replays scripted replies. JSON and plain completions have
// separate queues; an exhausted queue repeats its last entry.
type fakeGenerator struct {
	mu          sync.Mutex
	jsonReplies []generatorReply
	replies     []generatorReply

	jsonCalls     int
	completeCalls int
	lastMessages  []domain.Message
}

func (f *fakeGenerator) Complete(_ context.Context, messages []domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	f.lastMessages = messages
	reply := popReply(&f.replies)
	return reply.out, reply.err
}

func (f *fakeGenerator) CompleteJSON(_ context.Context, messages []domain.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonCalls++
	f.lastMessages = messages
	reply := popReply(&f.jsonReplies)
	return reply.out, reply.err
}

func popReply(queue *[]generatorReply) generatorReply {
	if len(*queue) == 0 {
		return generatorReply{}
	}
	reply := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return reply
}

type fakeEmbedder struct {
	mu      sync.Mutex
	err     error
	queries []string
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, text)
	return []float32{float32(len(text))}, nil
}

func (f *fakeEmbedder) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

type fakeDocumentStore struct {
	mu    sync.Mutex
	docs  []domain.Document
	err   error
	calls int
}

func (f *fakeDocumentStore) NearestNeighbors(_ context.Context, _ []float32, limit int) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.docs) {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocumentStore) ListAll(context.Context) ([]domain.Document, error) {
	return f.docs, f.err
}

type fakeScorer struct {
	results   []domain.ScoreResult
	err       error
	lastQuery string
	calls     int
}

func (f *fakeScorer) Score(_ context.Context, query string, _ []domain.ScoreCandidate) ([]domain.ScoreResult, error) {
	f.calls++
	f.lastQuery = query
	return f.results, f.err
}

type fakeRetriever struct {
	candidates []domain.Candidate
	err        error
	calls      int
	lastQuery  string
	lastCtx    string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, _ int, contextSummary string) ([]domain.Candidate, error) {
	f.calls++
	f.lastQuery = query
	f.lastCtx = contextSummary
	return f.candidates, f.err
}

type fakeLookup struct {
	report   string
	err      error
	calls    int
	lastName string
	lastID   int64
}

func (f *fakeLookup) Lookup(_ context.Context, name string, id int64) (string, error) {
	f.calls++
	f.lastName = name
	f.lastID = id
	return f.report, f.err
}

type fakePublisher struct {
	events []domain.TurnEvent
	err    error
}

func (f *fakePublisher) PublishTurnCompleted(_ context.Context, event domain.TurnEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type fakePatientStore struct {
	patients map[int64]domain.Patient
	matches  []domain.Patient
	records  map[int64][]domain.ClinicalRecord
	err      error
}

func (f *fakePatientStore) GetByID(_ context.Context, id int64) (*domain.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	patient, ok := f.patients[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrPatientNotFound, "get patient", errors.New("no rows"))
	}
	return &patient, nil
}

func (f *fakePatientStore) SearchByName(context.Context, string) ([]domain.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakePatientStore) ListRecords(_ context.Context, patientID int64) ([]domain.ClinicalRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[patientID], nil
}
