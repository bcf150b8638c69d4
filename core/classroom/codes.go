package classroom

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const (
	classroomIDPrefix = "CLS"
	slugMaxLen        = 25

	accessCodeSpace = 9000 // "1000" .. "9999"
	// GenerateAccessCode draws uniformly and retries on collision; in a
	// realistically sized class a retry is rare, the cap only guards the
	// pathological near-full classroom.
	accessCodeMaxAttempts = 100000
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^A-Z0-9-]`)

	// errors
	ErrInvalidClassName = errors.New("the classroom name contains invalid characters")
	ErrCodeSpaceFull    = errors.New("no student access codes left in this classroom")
)

// DeriveClassroomID derives the classroom id from its human-readable name:
// uppercased, whitespace runs collapsed to "-", anything outside [A-Z0-9-]
// stripped, truncated to 25 characters and tagged with the "CLS-" prefix.
func DeriveClassroomID(name string) (string, error) {
	slug := strings.ToUpper(core.CleanString(name))
	slug = whitespaceRegex.ReplaceAllString(slug, "-")
	slug = nonSlugRegex.ReplaceAllString(slug, "")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	if slug == "" {
		return "", core.NewValidationError(
			ErrInvalidClassName,
			core.FieldError{Field: "className", Error: ErrInvalidClassName.Error()},
		)
	}
	return classroomIDPrefix + "-" + slug, nil
}

// GenerateAccessCode draws a random 4-digit code not present in existingCodes.
// Code uniqueness is scoped to one classroom, not global.
func GenerateAccessCode(existingCodes map[string]struct{}) (string, error) {
	if len(existingCodes) >= accessCodeSpace {
		return "", ErrCodeSpaceFull
	}
	for attempts := 0; attempts < accessCodeMaxAttempts; attempts++ {
		n, err := rand.Int(rand.Reader, big.NewInt(accessCodeSpace))
		if err != nil {
			return "", pkgerrors.Wrap(err, "drawing access code")
		}
		code := strconv.Itoa(1000 + int(n.Int64()))
		if _, taken := existingCodes[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceFull
}

// GenerateToken returns a new opaque bearer token: 16 crypto-random bytes,
// hex encoded. Collision probability is negligible and not re-checked.
func GenerateToken() (string, error) {
	return randomHex(16, false)
}

// GenerateID returns a new prefixed identifier, eg. "S-9F2C01AB".
func GenerateID(prefix string) (string, error) {
	suffix, err := randomHex(4, true)
	if err != nil {
		return "", err
	}
	return prefix + "-" + suffix, nil
}

func randomHex(size int, upper bool) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", pkgerrors.Wrap(err, "reading random bytes")
	}
	s := hex.EncodeToString(buf)
	if upper {
		s = strings.ToUpper(s)
	}
	return s, nil
}
