package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxSlugLen = 12

var nonSlugChars = regexp.MustCompile(`[^A-Z0-9]+`)

// GenerateLicenseKey mints an opaque key bound to an account and the EA it
// was first issued for, e.g. GOLDSCALPER-12345678-9F1C2A7B.
func GenerateLicenseKey(eaName string, accountNumber int64) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate license key: %w", err)
	}
	token := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:8]
	return fmt.Sprintf("%s-%d-%s", eaSlug(eaName), accountNumber, token), nil
}

func eaSlug(eaName string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToUpper(eaName), "")
	if slug == "" {
		return "EA"
	}
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}

// MaskLicenseKey hides everything but the prefix for logging.
func MaskLicenseKey(key string) string {
	i := strings.LastIndex(key, "-")
	if i <= 0 {
		return "****"
	}
	return key[:i] + "-****"
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
