package detector

import (
	"reflect"
	"testing"
)

func TestDetectFrameworks(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "Bootstrap stylesheet",
			content:  `<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css">`,
			expected: []string{"Bootstrap"},
		},
		{
			name:     "Bootstrap grid classes",
			content:  `<div class="row"><div class="col-md-6">a</div></div>`,
			expected: []string{"Bootstrap"},
		},
		{
			name:     "Tailwind CDN",
			content:  `<script src="https://cdn.tailwindcss.com"></script>`,
			expected: []string{"Tailwind CSS"},
		},
		{
			name:     "Tailwind responsive prefix",
			content:  `<div class="hidden md:flex">menu</div>`,
			expected: []string{"Tailwind CSS"},
		},
		{
			name:     "Bulma",
			content:  `<link rel="stylesheet" href="/css/bulma.min.css">`,
			expected: []string{"Bulma"},
		},
		{
			name:     "Multiple frameworks keep priority order",
			content:  `<link href="foundation.css"><link href="bootstrap.css">`,
			expected: []string{"Bootstrap", "Foundation"},
		},
		{
			name:     "No framework",
			content:  `<html><body><p>plain page</p></body></html>`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFrameworks(tt.content)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("DetectFrameworks() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPrimaryFramework(t *testing.T) {
	if got := PrimaryFramework(`<link href="materialize.min.css"><link href="uikit.min.css">`); got != "Materialize" {
		t.Errorf("PrimaryFramework() = %q, want %q", got, "Materialize")
	}
	if got := PrimaryFramework(""); got != "" {
		t.Errorf("PrimaryFramework(\"\") = %q, want empty", got)
	}
}
