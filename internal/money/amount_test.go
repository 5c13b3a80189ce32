package money

import (
	"encoding/json"
	"testing"
)

func TestFromFloatAccumulatesExactly(t *testing.T) {
	unit := FromFloat(0.04)
	total := unit + unit + unit
	if total != FromFloat(0.12) {
		t.Fatalf("expected 0.04*3 == 0.12, got %s", total)
	}
	if total > FromFloat(0.12) {
		t.Fatal("accumulated total must not exceed 0.12")
	}
}

func TestStringFormatting(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{Zero, "0.00"},
		{FromFloat(0.04), "0.04"},
		{FromFloat(0.125), "0.125"},
		{FromFloat(12), "12.00"},
		{FromMicros(1), "0.000001"},
		{FromFloat(-1.5), "-1.50"},
	}
	for _, tt := range tests {
		if got := tt.amount.String(); got != tt.want {
			t.Fatalf("String(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
	if got := FromFloat(0.08).Dollars(); got != "$0.08" {
		t.Fatalf("Dollars() = %q", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Amount
		wantErr bool
	}{
		{"0.04", FromMicros(40_000), false},
		{"$1.50", FromMicros(1_500_000), false},
		{"12", FromMicros(12_000_000), false},
		{".5", FromMicros(500_000), false},
		{"-0.10", FromMicros(-100_000), false},
		{"", 0, true},
		{"abc", 0, true},
		{"0.0000001", 0, true},
		{".", 0, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestJSONEncoding(t *testing.T) {
	payload := struct {
		Cost Amount `json:"cost"`
	}{Cost: FromFloat(0.08)}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"cost":0.08}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	var decoded struct {
		Cost Amount `json:"cost"`
	}
	for _, raw := range []string{`{"cost":0.08}`, `{"cost":"0.08"}`, `{"cost":0.08000000000000002}`, `{"cost":8e-2}`} {
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if decoded.Cost != FromFloat(0.08) {
			t.Fatalf("unmarshal %s = %s", raw, decoded.Cost)
		}
	}
}
