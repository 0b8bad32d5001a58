// Package verification confirms that the four angle photographs submitted
// with a policy application are consistent with the declared vehicle. The
// interpreter's output is treated as a fallible oracle: transport failures
// and unparseable responses fail the verification closed (policy creation is
// rejected upstream), and a clean extraction is cross-validated attribute by
// attribute. Nothing here touches storage.
package verification

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gemini"

	types "github.com/suresight/suresight-backend/internal/domain"
)

// Attributes is what the interpreter extracted from the photographs. The
// field tags match the JSON contract of the extraction prompt.
type Attributes struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	YearRange string `json:"Manufacturing_year_range"`
	Type      string `json:"vehicle_type"`
	Damages   string `json:"damages"`
}

// Declared is the operator-entered vehicle identity under verification.
type Declared struct {
	Make  string
	Model string
	Type  types.VehicleType
	Year  int
}

// FourAngles carries the resolved evidence images in a fixed order.
type FourAngles struct {
	Front gemini.Image
	Rear  gemini.Image
	Left  gemini.Image
	Right gemini.Image
}

func (f FourAngles) list() []gemini.Image {
	return []gemini.Image{f.Front, f.Rear, f.Left, f.Right}
}

// Result is the verification verdict. When OK is false, Reason is one of
// interpreter_unavailable, malformed_response, or mismatch; Extracted is
// populated whenever a decodable extraction existed, so the caller can show
// the actor what the evidence looked like to the system.
type Result struct {
	OK        bool
	Reason    apperr.Kind
	Detail    string
	Extracted *Attributes
}

// Err converts a failed Result into its typed error, carrying the extracted
// attributes for display.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	e := apperr.New(r.Reason, "vehicle verification failed: %s", r.Detail)
	if r.Extracted != nil {
		e = e.WithExtracted(r.Extracted)
	}
	return e
}

type Verifier struct {
	log         *logger.Logger
	interpreter gemini.Client
}

func NewVerifier(interpreter gemini.Client, baseLog *logger.Logger) *Verifier {
	return &Verifier{
		log:         baseLog.With("module", "VehicleVerifier"),
		interpreter: interpreter,
	}
}

// Verify runs the single-request extraction and cross-validates against the
// declaration. Interpreter failure is a normal outcome, not a fault; it is
// reported in the Result, never raised.
func (v *Verifier) Verify(ctx context.Context, images FourAngles, declared Declared) Result {
	raw, err := v.interpreter.Interpret(ctx, extractionPrompt, images.list())
	if err != nil {
		v.log.Warn("Interpreter unavailable during vehicle verification", "error", err)
		return Result{Reason: apperr.KindInterpreterUnavailable, Detail: err.Error()}
	}

	payload := ExtractPayload(raw)
	var extracted Attributes
	if err := json.Unmarshal([]byte(payload), &extracted); err != nil {
		v.log.Warn("Unparseable interpreter output during vehicle verification", "error", err)
		return Result{Reason: apperr.KindMalformedResponse, Detail: "interpreter output could not be decoded"}
	}

	var mismatches []string
	if !strings.EqualFold(strings.TrimSpace(extracted.Make), strings.TrimSpace(declared.Make)) {
		mismatches = append(mismatches, "make")
	}
	if !strings.EqualFold(strings.TrimSpace(extracted.Model), strings.TrimSpace(declared.Model)) {
		mismatches = append(mismatches, "model")
	}
	if !strings.EqualFold(strings.TrimSpace(extracted.Type), string(declared.Type)) {
		mismatches = append(mismatches, "vehicle type")
	}
	if !yearWithinRange(declared.Year, extracted.YearRange) {
		mismatches = append(mismatches, "year")
	}

	if len(mismatches) > 0 {
		return Result{
			Reason:    apperr.KindMismatch,
			Detail:    "declared attributes do not match evidence: " + strings.Join(mismatches, ", "),
			Extracted: &extracted,
		}
	}
	return Result{OK: true, Extracted: &extracted}
}

// yearWithinRange checks the declared year against an extracted range like
// "2015-2020". A singleton year is treated as a lower bound only, so the
// check never rejects solely because the interpreter returned one year
// instead of a range. An unparseable range fails the check.
func yearWithinRange(declared int, yearRange string) bool {
	lo, hi, ok := parseYearRange(yearRange)
	if !ok {
		return false
	}
	if hi == 0 {
		return declared >= lo
	}
	return declared >= lo && declared <= hi
}

// parseYearRange pulls up to two four-digit years out of s. hi is zero when
// only a lower bound was present.
func parseYearRange(s string) (lo, hi int, ok bool) {
	var years []int
	run := 0
	start := -1
	flush := func(end int) {
		if run == 4 {
			if y, err := strconv.Atoi(s[start:end]); err == nil {
				years = append(years, y)
			}
		}
		run = 0
		start = -1
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if run == 0 {
				start = i
			}
			run++
			continue
		}
		flush(i)
	}
	flush(len(s))

	switch {
	case len(years) == 0:
		return 0, 0, false
	case len(years) == 1:
		return years[0], 0, true
	default:
		lo, hi = years[0], years[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		return lo, hi, true
	}
}
