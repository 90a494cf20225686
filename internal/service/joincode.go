package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	joinCodeAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	joinCodeGroups      = 3
	joinCodeGroupLength = 3
	joinCodeMaxAttempts = 10
)

// generateJoinCode produces a grouped random code like "k3f-9qa-x0m".
func generateJoinCode() (string, error) {
	b := make([]byte, joinCodeGroups*joinCodeGroupLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = joinCodeAlphabet[int(b[i])%len(joinCodeAlphabet)]
	}
	groups := make([]string, 0, joinCodeGroups)
	for g := 0; g < joinCodeGroups; g++ {
		groups = append(groups, string(b[g*joinCodeGroupLength:(g+1)*joinCodeGroupLength]))
	}
	return strings.Join(groups, "-"), nil
}

// generateUniqueJoinCode retries generation against the store's uniqueness
// check up to joinCodeMaxAttempts times before giving up.
func (s *RoomService) generateUniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= joinCodeMaxAttempts; attempt++ {
		code, err := generateJoinCode()
		if err != nil {
			return "", err
		}
		taken, err := s.roomRepo.IsJoinCodeTaken(ctx, code)
		if err != nil {
			return "", fmt.Errorf("database error checking join code: %w", err)
		}
		if !taken {
			return code, nil
		}
		logrus.WithField("join_code", code).Warnf("Generated join code already exists, retrying (attempt %d)", attempt)
	}
	return "", ErrCodeGenerationExhausted
}

// normalizeJoinCode reduces a full meeting link to its trailing code segment.
// Plain codes pass through unchanged.
func normalizeJoinCode(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return link
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return link
	}
	return parts[len(parts)-1]
}
