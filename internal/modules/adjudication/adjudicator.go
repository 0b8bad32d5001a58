// Package adjudication turns a damage narrative plus image evidence into an
// advisory verdict: severity, damage percentage, and a coverage-capped
// approvable amount. The verdict informs a privileged actor's decision but
// never drives it; adjudication failure must not block claim creation, so
// all failures surface as typed errors the claim service downgrades to an
// advisory-free claim.
package adjudication

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/suresight/suresight-backend/internal/modules/verification"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gemini"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type Input struct {
	Narrative       string
	RequestedAmount float64
	CoverageCap     float64
	Images          []gemini.Image
	// Hints are advisory strings from automated image analysis, appended to
	// the prompt when present.
	Hints []string
}

// Verdict is the structured adjudication outcome. ApprovableAmount is
// always within [0, CoverageCap] regardless of what the interpreter said;
// the cap is a domain invariant, not a model suggestion.
type Verdict struct {
	Severity         types.Severity
	DamagePercentage float64
	ApprovableAmount float64
	Justification    string
	Remarks          string
	Analysis         string
}

// rawVerdict tolerates the loose typing LLMs produce: percentages as "35%"
// strings, amounts as strings or numbers.
type rawVerdict struct {
	DamageAnalysis    string          `json:"damage_analysis"`
	DamagePercentage  json.RawMessage `json:"damage_percentage"`
	SeverityLevel     string          `json:"severity_level"`
	ApprovableAmount  json.RawMessage `json:"approvable_amount"`
	ReasonForApproval string          `json:"reason_for_approval"`
	Remarks           string          `json:"remarks"`
}

type Adjudicator struct {
	log         *logger.Logger
	interpreter gemini.Client
}

func NewAdjudicator(interpreter gemini.Client, baseLog *logger.Logger) *Adjudicator {
	return &Adjudicator{
		log:         baseLog.With("module", "ClaimAdjudicator"),
		interpreter: interpreter,
	}
}

// Adjudicate composes the underwriter request and decodes the verdict.
// Transport and decode failures both come back as adjudication_unavailable;
// callers create the claim anyway with no approvable amount.
func (a *Adjudicator) Adjudicate(ctx context.Context, in Input) (*Verdict, error) {
	if in.CoverageCap < 0 {
		return nil, apperr.New(apperr.KindValidation, "coverage cap must not be negative")
	}

	prompt := underwriterPrompt(in.Narrative, in.RequestedAmount, in.CoverageCap, in.Hints)
	raw, err := a.interpreter.Interpret(ctx, prompt, in.Images)
	if err != nil {
		a.log.Warn("Interpreter unavailable during claim adjudication", "error", err)
		return nil, apperr.Wrap(apperr.KindAdjudicationUnavailable, err)
	}

	payload := verification.ExtractPayload(raw)
	var rv rawVerdict
	if err := json.Unmarshal([]byte(payload), &rv); err != nil {
		a.log.Warn("Unparseable interpreter output during claim adjudication", "error", err)
		return nil, apperr.New(apperr.KindAdjudicationUnavailable, "adjudication output could not be decoded")
	}

	severity, ok := normalizeSeverity(rv.SeverityLevel)
	if !ok {
		return nil, apperr.New(apperr.KindAdjudicationUnavailable,
			"adjudication returned unknown severity %q", rv.SeverityLevel)
	}

	pct, err := looseFloat(rv.DamagePercentage)
	if err != nil {
		return nil, apperr.New(apperr.KindAdjudicationUnavailable, "adjudication returned unusable damage percentage")
	}
	amount, err := looseFloat(rv.ApprovableAmount)
	if err != nil {
		return nil, apperr.New(apperr.KindAdjudicationUnavailable, "adjudication returned unusable approvable amount")
	}

	return &Verdict{
		Severity:         severity,
		DamagePercentage: clamp(pct, 0, 100),
		ApprovableAmount: clamp(amount, 0, in.CoverageCap),
		Justification:    strings.TrimSpace(rv.ReasonForApproval),
		Remarks:          strings.TrimSpace(rv.Remarks),
		Analysis:         strings.TrimSpace(rv.DamageAnalysis),
	}, nil
}

func normalizeSeverity(s string) (types.Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return types.SeverityLow, true
	case "moderate", "medium":
		return types.SeverityModerate, true
	case "high":
		return types.SeverityHigh, true
	case "critical", "severe":
		return types.SeverityCritical, true
	}
	return "", false
}

// looseFloat accepts 35, 35.5, "35", "35%", "35.5 %".
func looseFloat(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("empty value")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("neither number nor string: %s", string(raw))
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	return strconv.ParseFloat(s, 64)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
