package pagecursor

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token := Encode("payments", 42)
	seq, err := Decode("payments", token)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if seq != 42 {
		t.Fatalf("expected seq 42, got %d", seq)
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"empty payload", base64.RawURLEncoding.EncodeToString([]byte(""))},
		{"too few parts", base64.RawURLEncoding.EncodeToString([]byte("v1|payments"))},
		{"too many parts", base64.RawURLEncoding.EncodeToString([]byte("v1|payments|7|extra"))},
		{"unknown version", base64.RawURLEncoding.EncodeToString([]byte("v9|payments|7"))},
		{"non-numeric seq", base64.RawURLEncoding.EncodeToString([]byte("v1|payments|abc"))},
		{"negative seq", base64.RawURLEncoding.EncodeToString([]byte("v1|payments|-1"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode("payments", tc.token); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecodeRejectsTokenFromOtherCollection(t *testing.T) {
	token := Encode("payments", 7)
	if _, err := Decode("forwarded_payments", token); !errors.Is(err, ErrWrongCollection) {
		t.Fatalf("expected ErrWrongCollection, got %v", err)
	}
}

func TestDecodeAcceptsZeroSequence(t *testing.T) {
	seq, err := Decode("payments", Encode("payments", 0))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected seq 0, got %d", seq)
	}
}
