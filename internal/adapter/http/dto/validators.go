package dto

import (
	"html"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"gig-escrow/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

// deliverableSchemes are the URI schemes accepted for delivered work.
var deliverableSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ipfs":  true,
	"ar":    true,
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
		_ = v.RegisterValidation("safe_uri", validateSafeURI)
		_ = v.RegisterValidation("identity", validateIdentity)
		_ = v.RegisterValidation("amount", validateAmount)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateSafeURI accepts absolute URIs with a known content scheme.
func validateSafeURI(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true // optional field; use "required" tag to enforce presence
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" && u.Opaque == "" {
		return false
	}
	return deliverableSchemes[strings.ToLower(u.Scheme)]
}

// validateIdentity accepts a non-zero 0x-prefixed 20-byte hex identity.
func validateIdentity(fl validator.FieldLevel) bool {
	_, err := domain.ParseAddress(fl.Field().String())
	return err == nil
}

// validateAmount accepts a base-10 integer that fits in 256 bits.
func validateAmount(fl validator.FieldLevel) bool {
	_, err := domain.ParseAmount(fl.Field().String())
	return err == nil
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				s := sanitize(elem.String())
				elem.SetString(s)
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
