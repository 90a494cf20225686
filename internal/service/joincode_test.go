package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJoinCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]{3}-[a-z0-9]{3}-[a-z0-9]{3}$`)
	for i := 0; i < 100; i++ {
		code, err := generateJoinCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestNormalizeJoinCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare code", "ab1-cd2-ef3", "ab1-cd2-ef3"},
		{"full link", "https://meet.example.com/join/ab1-cd2-ef3", "ab1-cd2-ef3"},
		{"link with trailing slash", "https://meet.example.com/join/ab1-cd2-ef3/", "ab1-cd2-ef3"},
		{"link with no path", "https://meet.example.com", "https://meet.example.com"},
		{"empty string", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeJoinCode(tc.in))
		})
	}
}
