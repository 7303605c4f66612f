package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"192.168.1.47", "192.168.1.0"},
		{"127.0.0.1", "127.0.0.0"},
		{"::ffff:10.1.2.3", "10.1.2.0"},
		{"2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"fe80::1", "fe80:0000:0000::"},
		{"", "unknown"},
		{"unknown", "unknown"},
		{"999.1.1.1", "invalid"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, AnonymizeIP(tt.input), tt.input)
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@uni.edu", MaskEmail("jane.doe@uni.edu"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
	assert.Equal(t, "***", MaskEmail("@nolocal.org"))
}
