package upload

import (
	"testing"
	"time"

	gerrors "github.com/goliatone/go-errors"
)

func TestNewRequirements(t *testing.T) {
	req, err := NewRequirements(
		RequireHTTPS(),
		RequirePreserveName(),
		RequireMinSize(1024),
		RequireRetention(time.Hour, 48*time.Hour),
		RequireMaxDownloads(3),
		RequireMinRandomPart(4),
		RequireMaxURLLength(40),
	)
	if err != nil {
		t.Fatalf("NewRequirements: %v", err)
	}

	if v, ok := req.HTTPS.Get(); !ok || !v {
		t.Error("Expected https to be required")
	}

	if v, ok := req.HTTP.Get(); !ok || v {
		t.Error("Expected plain http to be ruled out")
	}

	if v := req.MinSize.OrElse(0); v != 1024 {
		t.Errorf("Expected min size 1024, got %d", v)
	}

	if req.MaxRandomPart.IsSet() {
		t.Error("Expected max random part to stay unset")
	}

	if v := req.MinRandomPart.OrElse(0); v != 4 {
		t.Errorf("Expected min random part 4, got %d", v)
	}

	if v := req.MaxURLLength.OrElse(0); v != 40 {
		t.Errorf("Expected max url length 40, got %d", v)
	}
}

func TestRequireMaxRandomPartZero(t *testing.T) {
	req, err := NewRequirements(RequireMaxRandomPart(0))
	if err != nil {
		t.Fatalf("NewRequirements: %v", err)
	}

	if v, ok := req.MaxRandomPart.Get(); !ok || v != 0 {
		t.Fatalf("Expected max random part 0 to be kept, got %v", req.MaxRandomPart)
	}

	if Satisfies(req, testCapabilities()) {
		t.Error("Expected backends with random urls to be ruled out")
	}

	named := Capabilities{PreserveName: Some(true), PreservedURL: URLShape{RandomPart: 0, Length: 30}}
	if !Satisfies(req, named) {
		t.Error("Expected a backend without random part to qualify")
	}
}

func TestRequirementsValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   Requirements
		field string
	}{
		{
			name:  "both transports forbidden",
			req:   Requirements{HTTP: Some(false), HTTPS: Some(false)},
			field: "transport",
		},
		{
			name:  "negative size",
			req:   Requirements{MinSize: Some[int64](-1)},
			field: "min_size",
		},
		{
			name:  "inverted retention",
			req:   Requirements{MinRetention: Some(48 * time.Hour), MaxRetention: Some(time.Hour)},
			field: "max_retention",
		},
		{
			name:  "zero downloads",
			req:   Requirements{MaxDownloads: Some[int64](0)},
			field: "max_downloads",
		},
		{
			name:  "inverted random part",
			req:   Requirements{MinRandomPart: Some(8), MaxRandomPart: Some(4)},
			field: "max_random_part",
		},
		{
			name:  "zero url length",
			req:   Requirements{MaxURLLength: Some(0)},
			field: "max_url_length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}

			if !gerrors.IsValidation(err) {
				t.Fatalf("Expected validation category, got %v", err)
			}

			fields, ok := gerrors.GetValidationErrors(err)
			if !ok {
				t.Fatal("Expected field errors")
			}

			found := false
			for _, f := range fields {
				if f.Field == tt.field {
					found = true
				}
			}

			if !found {
				t.Errorf("Expected error on %q, got %+v", tt.field, fields)
			}
		})
	}
}

func TestRequirementsValidateAcceptsEmpty(t *testing.T) {
	if err := (Requirements{}).Validate(); err != nil {
		t.Errorf("Expected empty requirements to be valid, got %v", err)
	}

	if _, err := NewRequirements(ForbidHTTP()); err != nil {
		t.Errorf("Expected forbidding one transport to be valid, got %v", err)
	}
}

func TestOpt(t *testing.T) {
	var unset Opt[int]
	if unset.IsSet() {
		t.Error("Expected zero value to be unset")
	}

	if unset.OrElse(7) != 7 {
		t.Error("Expected default for unset value")
	}

	if unset.String() != "unset" {
		t.Errorf("Expected unset string, got %q", unset.String())
	}

	set := Some(0)
	if v, ok := set.Get(); !ok || v != 0 {
		t.Error("Expected zero to be a valid set value")
	}

	if None[string]().IsSet() {
		t.Error("Expected None to be unset")
	}
}
