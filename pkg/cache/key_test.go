package cache

import (
	"net/url"
	"testing"
)

func TestSignature_String(t *testing.T) {
	tests := []struct {
		name string
		sig  Signature
		want string
	}{
		{
			name: "no query",
			sig: Signature{
				Method: "GET",
				URL:    "/cafes/",
			},
			want: "GET:/cafes/:",
		},
		{
			name: "lowercase method is normalized",
			sig: Signature{
				Method: "get",
				URL:    "/stats/",
			},
			want: "GET:/stats/:",
		},
		{
			name: "query params (sorted)",
			sig: Signature{
				Method: "GET",
				URL:    "/cafes/",
				Query: url.Values{
					"page": []string{"2"},
					"city": []string{"lisbon"},
				},
			},
			want: "GET:/cafes/:city=lisbon&page=2",
		},
		{
			name: "repeated values keep their order",
			sig: Signature{
				Method: "GET",
				URL:    "/cafes/",
				Query: url.Values{
					"feature": []string{"wifi", "outlets"},
				},
			},
			want: "GET:/cafes/:feature=wifi&feature=outlets",
		},
		{
			name: "session fingerprint",
			sig: Signature{
				Method:  "GET",
				URL:     "/favorites/",
				Session: "9f2c",
			},
			want: "GET:/favorites/::session=9f2c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.String(); got != tt.want {
				t.Errorf("Signature.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSignature_Determinism ensures same input always produces same key
func TestSignature_Determinism(t *testing.T) {
	sig := Signature{
		Method: "GET",
		URL:    "/cafes/",
		Query: url.Values{
			"category":   []string{"coworking"},
			"price_max":  []string{"3"},
			"rating_min": []string{"4"},
			"city":       []string{"porto"},
		},
	}

	first := sig.String()
	for i := 0; i < 10; i++ {
		if got := sig.String(); got != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, got, first)
		}
	}
}
