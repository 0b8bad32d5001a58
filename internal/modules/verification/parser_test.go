package verification

import "testing"

func TestExtractPayload_StripsJSONFence(t *testing.T) {
	raw := "```json\n{\"make\": \"Toyota\"}\n```"
	got := ExtractPayload(raw)
	if got != `{"make": "Toyota"}` {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestExtractPayload_StripsBareFence(t *testing.T) {
	raw := "```\n{\"make\": \"Toyota\"}\n```"
	got := ExtractPayload(raw)
	if got != `{"make": "Toyota"}` {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestExtractPayload_FencedAndUnfencedAreEquivalent(t *testing.T) {
	body := `{"make": "Honda", "model": "Civic"}`
	fenced := "```json\n" + body + "\n```"
	if ExtractPayload(fenced) != ExtractPayload(body) {
		t.Fatalf("fenced and unfenced payloads diverge: %q vs %q",
			ExtractPayload(fenced), ExtractPayload(body))
	}
}

func TestExtractPayload_LeavesPlainTextAlone(t *testing.T) {
	raw := "  not json at all  "
	if got := ExtractPayload(raw); got != "not json at all" {
		t.Fatalf("expected trimmed raw text, got %q", got)
	}
}

func TestExtractPayload_PreservesInnerBackticks(t *testing.T) {
	raw := "```json\n{\"note\": \"use `vin` field\"}\n```"
	got := ExtractPayload(raw)
	if got != `{"note": "use `+"`vin`"+` field"}` {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestExtractPayload_NeverPanicsOnGarbage(t *testing.T) {
	for _, raw := range []string{"", "```", "``````", "```json", "```json\n"} {
		_ = ExtractPayload(raw)
	}
}
