package util

import "testing"

func TestCleanPrice(t *testing.T) {
	cases := map[string]string{
		"$249.00":       "249.00",
		"AUD 1,249.50":  "1,249.50",
		"  12 ea ":      "12",
		"POA":           "",
		"€1.249,00 inc": "1.249,00",
	}
	for input, want := range cases {
		if got := CleanPrice(input); got != want {
			t.Fatalf("CleanPrice(%q)=%q want %q", input, got, want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain decimal", input: "$249.00", want: 249},
		{name: "thousands comma", input: "1,249.50", want: 1249.5},
		{name: "thousands dot decimal comma", input: "1.249,00", want: 1249},
		{name: "decimal comma", input: "12,5", want: 12.5},
		{name: "integer", input: "300", want: 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			if got == nil {
				t.Fatalf("amount is nil")
			}
			if *got != tc.want {
				t.Fatalf("got %v want %v", *got, tc.want)
			}
		})
	}
	if ParseAmount("POA") != nil {
		t.Fatalf("expected nil for non-numeric price")
	}
}
