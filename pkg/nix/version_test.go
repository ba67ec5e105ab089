package nix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"2.0", "1.9", 1},
		{"1.10", "1.9", 1},
		{"1.0", "1.0.1", -1},
		{"1.0pre3", "1.0", -1},
		{"1.0", "1.0a", -1},
		{"1.0a", "1.0b", -1},
		{"8u412", "8u402", 1},
		{"protobuf-25.1", "protobuf-3.21.12", 1},
		{"01", "1", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, CompareVersions(tc.a, tc.b))
			assert.Equal(t, -tc.want, CompareVersions(tc.b, tc.a))
		})
	}
}
