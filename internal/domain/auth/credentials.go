package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const (
	maxNickname       = 24
	minPasswordLength = 8
)

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

// normalizeNickname collapses inner whitespace. An empty nickname falls back
// to the email's local part.
func normalizeNickname(raw, email string) (string, error) {
	nickname := strings.Join(strings.Fields(raw), " ")
	if nickname == "" {
		nickname, _, _ = strings.Cut(email, "@")
	}
	if len([]rune(nickname)) > maxNickname {
		return "", fmt.Errorf("nickname cannot exceed %d characters", maxNickname)
	}
	if strings.IndexFunc(nickname, invalidNicknameRune) >= 0 {
		return "", errors.New("nickname may only contain letters, digits, spaces, dots, dashes or underscores")
	}
	return nickname, nil
}

func invalidNicknameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	return !strings.ContainsRune(" ._-", r)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// adminSet is a case-insensitive set of email addresses.
type adminSet map[string]struct{}

func newAdminSet(emails []string) adminSet {
	set := make(adminSet, len(emails))
	for _, raw := range emails {
		if email, err := normalizeEmail(raw); err == nil {
			set[email] = struct{}{}
		}
	}
	return set
}

func (a adminSet) contains(email string) bool {
	_, ok := a[strings.ToLower(email)]
	return ok
}
