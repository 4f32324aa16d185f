package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	maxEmailLen    = 255
	minPasswordLen = 8
	maxPasswordLen = 128
	maxNameLen     = 50
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validEmail applies the storefront rule and also rejects addresses net/mail
// cannot parse.
func validEmail(s string) bool {
	if s == "" || len(s) > maxEmailLen || !emailPattern.MatchString(s) {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

func checkEmail(email string) error {
	if !validEmail(email) {
		return apierr.BadRequest("invalid_email", "Please enter a valid email address")
	}
	return nil
}

func checkPassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < minPasswordLen || n > maxPasswordLen {
		return apierr.BadRequest("invalid_password", fmt.Sprintf("Password must be %d to %d characters", minPasswordLen, maxPasswordLen))
	}
	return nil
}

func checkName(field, v string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(v))
	if n < 1 || n > maxNameLen {
		return apierr.BadRequest("invalid_name", fmt.Sprintf("%s must be 1 to %d characters", field, maxNameLen))
	}
	return nil
}

func checkMaxLen(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return apierr.BadRequest("invalid_argument", fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// newRawToken returns a url-safe random token and the sha256 hex stored for it.
func newRawToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func requireUser(rd *ctxutil.RequestData) (uuid.UUID, error) {
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("request data not set in context: %w", pkgerrors.ErrUnauthorized)
	}
	return rd.UserID, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
