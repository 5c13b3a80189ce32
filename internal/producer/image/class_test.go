package image

import (
	"errors"
	"testing"

	"assetgen/internal/producer"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		params   producer.Parameters
		declared string
		fallback string
		want     string
	}{
		{"parameters win over fallback", producer.Parameters{"size": "1792x1024", "quality": "HD"}, "", "1024x1024/standard", "1792x1024/hd"},
		{"fallback fills quality", producer.Parameters{"size": "1024x1792"}, "", "1024x1024/standard", "1024x1792/standard"},
		{"declared fills both", producer.Parameters{}, "1024x1024/hd", "1024x1024/standard", "1024x1024/hd"},
		{"declared size only", producer.Parameters{"quality": "hd"}, "1792x1024", "", "1792x1024/hd"},
		{"api defaults", producer.Parameters{}, "", "", "1024x1024/standard"},
		{"opaque declared class", producer.Parameters{"size": "1792x1024"}, "promo", "", "promo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, resolved, err := Classify(tt.params, tt.declared, tt.fallback)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tt.want {
				t.Fatalf("class = %q, want %q", got, tt.want)
			}
			if tt.want == "promo" {
				return
			}
			if want := resolved.StringOr("size", "") + "/" + resolved.StringOr("quality", ""); want != got {
				t.Fatalf("resolved parameters %v disagree with class %q", resolved, got)
			}
		})
	}
}

func TestClassifyLeavesInputUntouched(t *testing.T) {
	params := producer.Parameters{"prompt": "x"}
	if _, _, err := Classify(params, "1024x1024/hd", ""); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if _, ok := params["quality"]; ok {
		t.Fatalf("input parameters were mutated: %v", params)
	}
}

func TestClassifyRejectsContradictions(t *testing.T) {
	if _, _, err := Classify(producer.Parameters{"size": "1792x1024"}, "1024x1024/standard", ""); !errors.Is(err, producer.ErrInvalidParameters) {
		t.Fatalf("expected size contradiction, got %v", err)
	}
	if _, _, err := Classify(producer.Parameters{"quality": "hd"}, "1024x1024/standard", ""); !errors.Is(err, producer.ErrInvalidParameters) {
		t.Fatalf("expected quality contradiction, got %v", err)
	}
}
