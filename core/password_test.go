package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDeriver_Validation(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		alphabet string
		length   int
		wantErr  error
	}{
		{"missing secret", "", StandardAlphabet, 6, ErrNoSecret},
		{"empty alphabet", "secret", "", 6, ErrEmptyAlphabet},
		{"zero length", "secret", StandardAlphabet, 0, ErrNoLetters},
		{"negative length", "secret", StandardAlphabet, -1, ErrNoLetters},
		{"length past digest size", "secret", StandardAlphabet, 33, ErrLettersExceedDigest},
		{"valid", "secret", StandardAlphabet, 6, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDeriver(tt.secret, tt.alphabet, tt.length, false)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, d)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, d)
		})
	}
}

func TestNewDeriver_LegacyDigestSize(t *testing.T) {
	// MD5 digests are 16 bytes, so 17 letters cannot be derived
	_, err := NewDeriver("secret", StandardAlphabet, 17, true)
	require.ErrorIs(t, err, ErrLettersExceedDigest)

	d, err := NewDeriver("secret", StandardAlphabet, 16, true)
	require.NoError(t, err)
	require.NotNil(t, d)
}

func TestDerive_Deterministic(t *testing.T) {
	d, err := NewDeriver("secret", StandardAlphabet, 6, false)
	require.NoError(t, err)

	first, err := d.Derive("RandomZufall")
	require.NoError(t, err)
	require.Len(t, first, 6)

	second, err := d.Derive("RandomZufall")
	require.NoError(t, err)
	require.Equal(t, first, second, "derivation should be stable across calls")
}

func TestDerive_KnownVectors(t *testing.T) {
	tests := []struct {
		name      string
		alphabet  string
		length    int
		legacyMD5 bool
		token     string
		want      string
	}{
		{"hmac-sha256 default", StandardAlphabet, 6, false, "RandomZufall", "eaiqil"},
		{"hmac-sha256 other token", StandardAlphabet, 6, false, "OtherToken", "grxibs"},
		{"hmac-sha256 custom alphabet", "abcdef", 8, false, "RandomZufall", "caeccbad"},
		{"legacy md5", StandardAlphabet, 6, true, "RandomZufall", "wvphnh"},
		{"legacy md5 other token", StandardAlphabet, 6, true, "OtherToken", "ufhoed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDeriver("secret", tt.alphabet, tt.length, tt.legacyMD5)
			require.NoError(t, err)

			got, err := d.Derive(tt.token)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDerive_DistinctTokens(t *testing.T) {
	d, err := NewDeriver("secret", StandardAlphabet, 6, false)
	require.NoError(t, err)

	p1, err := d.Derive("token-one")
	require.NoError(t, err)
	p2, err := d.Derive("token-two")
	require.NoError(t, err)

	require.NotEqual(t, p1, p2, "distinct tokens should derive distinct passwords")
}

func TestDerive_EmptyToken(t *testing.T) {
	d, err := NewDeriver("secret", StandardAlphabet, 6, false)
	require.NoError(t, err)

	_, err = d.Derive("")
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestDerive_AlphabetBounds(t *testing.T) {
	// A single-letter alphabet maps every digest byte to that letter
	d, err := NewDeriver("secret", "x", 6, false)
	require.NoError(t, err)

	got, err := d.Derive("RandomZufall")
	require.NoError(t, err)
	require.Equal(t, "xxxxxx", got)
}
