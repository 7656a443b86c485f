package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAddress(t *testing.T) {
	addr := BuildAddress("fluree", "s3", "mybucket/prefix/ledger1/commit/ab12.json")
	assert.Equal(t, "fluree:s3://mybucket/prefix/ledger1/commit/ab12.json", addr)
}

func TestBuildAddressSanitizesLeadingSlashes(t *testing.T) {
	assert.Equal(t, "fluree:file://a/b", BuildAddress("fluree", "file", "/a/b"))
	assert.Equal(t, "fluree:file://a/b", BuildAddress("fluree", "file", "//a/b"))
	assert.Equal(t, "fluree:file://a/b", BuildAddress("fluree", "file", "a/b"))
}

func TestParseAddressRoundTrip(t *testing.T) {
	cases := []struct {
		namespace, method, path string
	}{
		{"fluree", "memory", "L1/main/commit/abc.json"},
		{"fluree", "s3", "bucket/prefix/L1/main/index/spot/def.json"},
		{"org", "file", "x"},
		{"fluree", "remote", "L1/txn/0011.json"},
	}
	for _, tc := range cases {
		addr, err := ParseAddress(BuildAddress(tc.namespace, tc.method, tc.path))
		require.NoError(t, err)
		assert.Equal(t, tc.namespace, addr.Namespace)
		assert.Equal(t, tc.method, addr.Method)
		assert.Equal(t, tc.path, addr.Local)
	}
}

func TestParseAddressMalformed(t *testing.T) {
	for _, bad := range []string{"", "fluree", "fluree:memory", "no-colons-at-all"} {
		_, err := ParseAddress(bad)
		require.Error(t, err, "address %q", bad)
		assert.True(t, errors.Is(err, ErrMalformedAddress))
	}
}

func TestParseAddressStripsDoubleSlash(t *testing.T) {
	addr, err := ParseAddress("fluree:memory://L1/main/commit/abc.json")
	require.NoError(t, err)
	assert.Equal(t, "L1/main/commit/abc.json", addr.Local)
}

func TestAddressString(t *testing.T) {
	a := Address{Namespace: "fluree", Method: "memory", Local: "L1/x"}
	assert.Equal(t, "fluree:memory://L1/x", a.String())
}
