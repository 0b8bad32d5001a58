package adjudication

import (
	"context"
	"errors"
	"testing"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gemini"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type fakeInterpreter struct {
	reply string
	err   error
}

func (f *fakeInterpreter) Interpret(ctx context.Context, instruction string, images []gemini.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testInput() Input {
	return Input{
		Narrative:       "rear bumper crushed in parking lot collision",
		RequestedAmount: 45000,
		CoverageCap:     30000,
		Images:          []gemini.Image{{MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8}}},
	}
}

func TestAdjudicate_DecodesVerdict(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: "```json\n" +
		`{"damage_analysis":"rear bumper deformation","damage_percentage":"35%","severity_level":"Moderate","approvable_amount":22000,"reason_for_approval":"consistent with repair cost","remarks":"none"}` +
		"\n```"}, testLogger(t))

	v, err := a.Adjudicate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Severity != types.SeverityModerate {
		t.Fatalf("severity = %q", v.Severity)
	}
	if v.DamagePercentage != 35 {
		t.Fatalf("damage percentage = %v", v.DamagePercentage)
	}
	if v.ApprovableAmount != 22000 {
		t.Fatalf("approvable amount = %v", v.ApprovableAmount)
	}
}

func TestAdjudicate_ClampsApprovableToCoverage(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: `{"damage_analysis":"total loss","damage_percentage":120,"severity_level":"Critical","approvable_amount":45000,"reason_for_approval":"full payout","remarks":""}`}, testLogger(t))

	v, err := a.Adjudicate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ApprovableAmount != 30000 {
		t.Fatalf("approvable amount must be capped at coverage, got %v", v.ApprovableAmount)
	}
	if v.DamagePercentage != 100 {
		t.Fatalf("damage percentage must be capped at 100, got %v", v.DamagePercentage)
	}
}

func TestAdjudicate_NegativeAmountClampsToZero(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: `{"damage_analysis":"pre-existing damage","damage_percentage":5,"severity_level":"Low","approvable_amount":-100,"reason_for_approval":"","remarks":"likely pre-existing"}`}, testLogger(t))

	v, err := a.Adjudicate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ApprovableAmount != 0 {
		t.Fatalf("negative amount must clamp to zero, got %v", v.ApprovableAmount)
	}
}

func TestAdjudicate_InterpreterFailureIsUnavailable(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{err: errors.New("timeout")}, testLogger(t))

	_, err := a.Adjudicate(context.Background(), testInput())
	if !apperr.IsKind(err, apperr.KindAdjudicationUnavailable) {
		t.Fatalf("expected adjudication_unavailable, got %v", err)
	}
}

func TestAdjudicate_GarbageOutputIsUnavailable(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: "unable to assess the damage from these pictures"}, testLogger(t))

	_, err := a.Adjudicate(context.Background(), testInput())
	if !apperr.IsKind(err, apperr.KindAdjudicationUnavailable) {
		t.Fatalf("expected adjudication_unavailable, got %v", err)
	}
}

func TestAdjudicate_UnknownSeverityIsUnavailable(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: `{"damage_analysis":"x","damage_percentage":10,"severity_level":"catastrophic","approvable_amount":100,"reason_for_approval":"","remarks":""}`}, testLogger(t))

	_, err := a.Adjudicate(context.Background(), testInput())
	if !apperr.IsKind(err, apperr.KindAdjudicationUnavailable) {
		t.Fatalf("expected adjudication_unavailable, got %v", err)
	}
}

func TestAdjudicate_NegativeCoverageCapIsRejected(t *testing.T) {
	a := NewAdjudicator(&fakeInterpreter{reply: "{}"}, testLogger(t))

	in := testInput()
	in.CoverageCap = -1
	_, err := a.Adjudicate(context.Background(), in)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeSeverity(t *testing.T) {
	cases := map[string]types.Severity{
		"low":      types.SeverityLow,
		"Moderate": types.SeverityModerate,
		"MEDIUM":   types.SeverityModerate,
		"high":     types.SeverityHigh,
		"Critical": types.SeverityCritical,
		"severe":   types.SeverityCritical,
	}
	for in, want := range cases {
		got, ok := normalizeSeverity(in)
		if !ok || got != want {
			t.Fatalf("normalizeSeverity(%q) = (%q, %v), want %q", in, got, ok, want)
		}
	}
	if _, ok := normalizeSeverity("catastrophic"); ok {
		t.Fatalf("unknown severity must not normalize")
	}
}
