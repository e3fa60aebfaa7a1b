package hisrgb

import (
	"errors"
	"testing"
)

func TestParseBitDepth(t *testing.T) {
	tests := []struct {
		input   string
		want    BitDepth
		max     float64
		wantErr bool
	}{
		{input: "8", want: 8, max: 255},
		{input: "16", want: 16, max: 65535},
		{input: "2", want: 2, max: 3},
		{input: " 10 ", want: 10, max: 1023},
		{input: "1", wantErr: true},
		{input: "17", wantErr: true},
		{input: "0", wantErr: true},
		{input: "-4", wantErr: true},
		{input: "eight", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBitDepth(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBitDepth(%q) expected error, got %d", tt.input, got)
				}
				if !errors.Is(err, ErrInvalidBitDepth) {
					t.Errorf("expected ErrInvalidBitDepth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBitDepth(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBitDepth(%q) = %d, want %d", tt.input, got, tt.want)
			}
			if got.MaxColorValue() != tt.max {
				t.Errorf("MaxColorValue() = %v, want %v", got.MaxColorValue(), tt.max)
			}
		})
	}
}

func TestDefaultBitDepth(t *testing.T) {
	if err := DefaultBitDepth.Validate(); err != nil {
		t.Fatalf("default bit depth invalid: %v", err)
	}
	if DefaultBitDepth.MaxColorValue() != 255 {
		t.Errorf("expected 255, got %v", DefaultBitDepth.MaxColorValue())
	}
}
