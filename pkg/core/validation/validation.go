// Package validation holds the pure input checks used by the services.
// Every function reports problems as field errors instead of failing fast.
package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

// Field names as they appear in request bodies.
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldOriginalURL = "originalUrl"
	FieldDomain      = "domain"
)

const (
	minUsernameLength = 4
	maxUsernameLength = 16
	minPasswordLength = 8
	maxPasswordLength = 32
	maxHostnameLength = 253

	// PasswordSpecials is the set a password must draw at least one symbol from.
	PasswordSpecials = "!@#$%^&*()_+-="
)

const passwordPolicyMessage = "password must include at least one uppercase letter, one lowercase letter, " +
	"one number, and one special character, and be between 8 and 32 characters long"

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	labelRe    = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)
	tldRe      = regexp.MustCompile(`^[A-Za-z]{2,6}$`)
	hostTLDRe  = regexp.MustCompile(`^[A-Za-z]{2,63}$`)
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
}

// Registration checks a username/password pair for the register operation.
// Uniqueness of the username is the caller's business.
func Registration(username, password string) []domain.FieldError {
	var errs []domain.FieldError

	switch {
	case isBlank(username):
		errs = append(errs, fieldError(FieldUsername, "username is a required field!"))
	case len(username) < minUsernameLength || len(username) > maxUsernameLength:
		errs = append(errs, fieldError(FieldUsername, "username must have 4-16 characters!"))
	case !usernameRe.MatchString(username):
		errs = append(errs, fieldError(FieldUsername, "username may only contain letters, digits, '.', '_' and '-'!"))
	}

	switch {
	case isBlank(password):
		errs = append(errs, fieldError(FieldPassword, "password is a required field!"))
	case !IsValidPassword(password):
		errs = append(errs, fieldError(FieldPassword, passwordPolicyMessage))
	}

	return errs
}

// Login only checks presence; credentials are verified against the store.
func Login(username, password string) []domain.FieldError {
	var errs []domain.FieldError
	if isBlank(username) {
		errs = append(errs, fieldError(FieldUsername, "username is a required field!"))
	}
	if isBlank(password) {
		errs = append(errs, fieldError(FieldPassword, "password is a required field!"))
	}
	return errs
}

// ShortenRequired reports missing mandatory shorten fields.
func ShortenRequired(req domain.ShortenRequest) []domain.FieldError {
	if isBlank(req.TargetURL) {
		return []domain.FieldError{fieldError(FieldOriginalURL, "originalUrl is a required field!")}
	}
	return nil
}

// ShortenSyntax checks the target URL and the optional domain tag.
func ShortenSyntax(req domain.ShortenRequest) []domain.FieldError {
	var errs []domain.FieldError
	if !IsValidURL(req.TargetURL) {
		errs = append(errs, fieldError(FieldOriginalURL, "Invalid URL!"))
	}
	if req.DomainTag != "" && !IsValidDomain(req.DomainTag) {
		errs = append(errs, fieldError(FieldDomain, "Invalid domain!"))
	}
	return errs
}

// IsValidPassword applies the complexity policy.
func IsValidPassword(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// IsValidDomain accepts dotted names whose labels are 1-63 letters, digits
// or hyphens without a leading or trailing hyphen, ending in a 2-6 letter TLD.
func IsValidDomain(name string) bool {
	return isDottedName(name, tldRe)
}

// IsValidURL requires a known scheme and a host that is an IP literal or a
// dotted hostname.
func IsValidURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] || u.Host == "" {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	return isDottedName(host, hostTLDRe)
}

func isDottedName(name string, tld *regexp.Regexp) bool {
	if name == "" || len(name) > maxHostnameLength {
		return false
	}

	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}

	last := len(labels) - 1
	for _, label := range labels[:last] {
		if !labelRe.MatchString(label) {
			return false
		}
	}
	return tld.MatchString(labels[last])
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func fieldError(field, message string) domain.FieldError {
	return domain.FieldError{Field: field, Message: message}
}
