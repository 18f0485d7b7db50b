package usecase

import (
	"context"
	"errors"
	"testing"
)

func TestExpandAppendsOriginalLast(t *testing.T) {
	gen := &fakeGenerator{jsonReplies: []generatorReply{
		{out: `{"variants":["hiperglucemia en ayunas","glucemia basal elevada","criterios diagnosticos de glucosa alterada"]}`},
	}}
	expander := NewQueryExpander(gen, testLogger())

	variants := expander.Expand(context.Background(), "que significa glucosa alta?", "")
	if len(variants) != 4 {
		t.Fatalf("expected 3 variants plus original, got %d: %v", len(variants), variants)
	}
	if variants[3] != "que significa glucosa alta?" {
		t.Fatalf("original query must come last, got %q", variants[3])
	}
}

func TestExpandDropsDuplicatesAndBlanks(t *testing.T) {
	gen := &fakeGenerator{jsonReplies: []generatorReply{
		{out: `{"variants":["hiperglucemia","hiperglucemia","  ","glucosa alta"]}`},
	}}
	expander := NewQueryExpander(gen, testLogger())

	variants := expander.Expand(context.Background(), "glucosa alta", "")
	if len(variants) != 2 {
		t.Fatalf("expected deduplicated output, got %v", variants)
	}
	if variants[0] != "hiperglucemia" || variants[1] != "glucosa alta" {
		t.Fatalf("unexpected variants: %v", variants)
	}
}

func TestExpandCapsVariantCount(t *testing.T) {
	gen := &fakeGenerator{jsonReplies: []generatorReply{
		{out: `{"variants":["a","b","c","d","e"]}`},
	}}
	expander := NewQueryExpander(gen, testLogger())

	variants := expander.Expand(context.Background(), "q", "")
	if len(variants) != 4 {
		t.Fatalf("expected cap of 3 variants plus original, got %v", variants)
	}
}

func TestExpandGenerationFailureFallsBackToOriginal(t *testing.T) {
	gen := &fakeGenerator{jsonReplies: []generatorReply{
		{err: errors.New("model unavailable")},
	}}
	expander := NewQueryExpander(gen, testLogger())

	variants := expander.Expand(context.Background(), "glucosa alta", "")
	if len(variants) != 1 || variants[0] != "glucosa alta" {
		t.Fatalf("failure must degrade to the original query, got %v", variants)
	}
}

func TestExpandUnparsableResponseFallsBackToOriginal(t *testing.T) {
	gen := &fakeGenerator{jsonReplies: []generatorReply{
		{out: `{"totally": "unrelated"}`},
	}}
	expander := NewQueryExpander(gen, testLogger())

	variants := expander.Expand(context.Background(), "glucosa alta", "")
	if len(variants) != 1 || variants[0] != "glucosa alta" {
		t.Fatalf("unparsable payload must degrade to the original query, got %v", variants)
	}
}

func TestParseExpansionResponseAcceptsBareArrayAndLines(t *testing.T) {
	if got := parseExpansionResponse(`["uno","dos"]`); len(got) != 2 {
		t.Fatalf("bare array not accepted: %v", got)
	}
	got := parseExpansionResponse("1. hiperglucemia\n- glucemia basal\n")
	if len(got) != 2 || got[0] != "hiperglucemia" || got[1] != "glucemia basal" {
		t.Fatalf("line fallback failed: %v", got)
	}
	if got := parseExpansionResponse("   "); got != nil {
		t.Fatalf("blank input must yield nil, got %v", got)
	}
}
