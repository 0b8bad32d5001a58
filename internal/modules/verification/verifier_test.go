package verification

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

func testAngles() FourAngles {
	img := gemini.Image{MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8}}
	return FourAngles{Front: img, Rear: img, Left: img, Right: img}
}

func TestVerify_MatchIsCaseInsensitive(t *testing.T) {
	v := NewVerifier(&fakeInterpreter{reply: "```json\n" +
		`{"make":"TOYOTA","model":"corolla","Manufacturing_year_range":"2015-2020","vehicle_type":"FourWheeler","damages":"scratch on left door"}` +
		"\n```"}, testLogger(t))

	res := v.Verify(context.Background(), testAngles(), Declared{
		Make: "Toyota", Model: "Corolla", Type: types.FourWheeler, Year: 2018,
	})
	if !res.OK {
		t.Fatalf("expected OK, got reason %q detail %q", res.Reason, res.Detail)
	}
	if res.Extracted == nil || res.Extracted.Damages != "scratch on left door" {
		t.Fatalf("expected extracted damages to be carried through")
	}
}

func TestVerify_YearOutsideRangeIsMismatch(t *testing.T) {
	v := NewVerifier(&fakeInterpreter{reply: `{"make":"Toyota","model":"Corolla","Manufacturing_year_range":"2015-2020","vehicle_type":"fourwheeler","damages":""}`}, testLogger(t))

	res := v.Verify(context.Background(), testAngles(), Declared{
		Make: "Toyota", Model: "Corolla", Type: types.FourWheeler, Year: 2022,
	})
	if res.OK {
		t.Fatalf("expected mismatch")
	}
	if res.Reason != apperr.KindMismatch {
		t.Fatalf("expected mismatch reason, got %q", res.Reason)
	}
	if res.Extracted == nil {
		t.Fatalf("mismatch must carry the extracted attributes")
	}
}

func TestVerify_SingletonYearIsLowerBoundOnly(t *testing.T) {
	v := NewVerifier(&fakeInterpreter{reply: `{"make":"Honda","model":"Civic","Manufacturing_year_range":"2016","vehicle_type":"fourwheeler","damages":""}`}, testLogger(t))

	res := v.Verify(context.Background(), testAngles(), Declared{
		Make: "Honda", Model: "Civic", Type: types.FourWheeler, Year: 2019,
	})
	if !res.OK {
		t.Fatalf("declared year above singleton lower bound must pass, got %q", res.Detail)
	}

	res = v.Verify(context.Background(), testAngles(), Declared{
		Make: "Honda", Model: "Civic", Type: types.FourWheeler, Year: 2014,
	})
	if res.OK {
		t.Fatalf("declared year below singleton lower bound must fail")
	}
}

func TestVerify_InterpreterFailure(t *testing.T) {
	v := NewVerifier(&fakeInterpreter{err: errors.New("deadline exceeded")}, testLogger(t))

	res := v.Verify(context.Background(), testAngles(), Declared{
		Make: "Toyota", Model: "Corolla", Type: types.FourWheeler, Year: 2018,
	})
	if res.OK {
		t.Fatalf("expected failure")
	}
	if res.Reason != apperr.KindInterpreterUnavailable {
		t.Fatalf("expected interpreter_unavailable, got %q", res.Reason)
	}
	err := res.Err()
	if !apperr.IsKind(err, apperr.KindInterpreterUnavailable) {
		t.Fatalf("Err() lost the kind: %v", err)
	}
}

func TestVerify_UndecodableOutputIsMalformed(t *testing.T) {
	v := NewVerifier(&fakeInterpreter{reply: "I could not identify the vehicle, sorry."}, testLogger(t))

	res := v.Verify(context.Background(), testAngles(), Declared{
		Make: "Toyota", Model: "Corolla", Type: types.FourWheeler, Year: 2018,
	})
	if res.OK || res.Reason != apperr.KindMalformedResponse {
		t.Fatalf("expected malformed_response, got ok=%v reason=%q", res.OK, res.Reason)
	}
}

func TestParseYearRange(t *testing.T) {
	cases := []struct {
		in     string
		lo, hi int
		ok     bool
	}{
		{"2015-2020", 2015, 2020, true},
		{"2020-2015", 2015, 2020, true},
		{"approximately 2016 to 2019", 2016, 2019, true},
		{"2016", 2016, 0, true},
		{"unknown", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		lo, hi, ok := parseYearRange(tc.in)
		if lo != tc.lo || hi != tc.hi || ok != tc.ok {
			t.Fatalf("parseYearRange(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tc.in, lo, hi, ok, tc.lo, tc.hi, tc.ok)
		}
	}
}
