package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength  = 2
	minPhoneLength = 9
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Violation is a single schema failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is the ordered set of failures collected for one payload.
type Violations []Violation

func (v Violations) Error() string {
	parts := make([]string, len(v))
	for i, viol := range v {
		parts[i] = viol.Field + ": " + viol.Message
	}
	return "leads: validation failed: " + strings.Join(parts, "; ")
}

func (v Violations) Is(target error) bool {
	return target == ErrValidation
}

func (v *Violations) add(field, format string, args ...any) {
	*v = append(*v, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// DecodeObject parses body as a single JSON object. Numbers are kept as
// json.Number so millisecond timestamps keep full precision.
func DecodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrMalformedJSON)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}
	return raw, nil
}

// Validate checks raw against the lead schema and returns every violation found.
// The returned input is only meaningful when no violations are reported.
func Validate(raw map[string]any) (LeadInput, Violations) {
	var (
		in   LeadInput
		errs Violations
	)

	if v, ok := raw["name"]; !ok || v == nil {
		errs.add("name", "is required")
	} else if name, ok := v.(string); !ok {
		errs.add("name", "must be a string")
	} else {
		in.Name = strings.TrimSpace(name)
		if utf8.RuneCountInString(in.Name) < minNameLength {
			errs.add("name", "must be at least %d characters", minNameLength)
		}
	}

	in.Email = optionalString(raw, "email", &errs)
	if in.Email != "" && !emailPattern.MatchString(in.Email) {
		errs.add("email", "must be a valid email address")
	}

	in.Phone = optionalString(raw, "phone", &errs)
	if in.Phone != "" && utf8.RuneCountInString(in.Phone) < minPhoneLength {
		errs.add("phone", "must be at least %d characters", minPhoneLength)
	}

	if !hasValue(raw, "email") && !hasValue(raw, "phone") {
		errs.add("contact", "either email or phone is required")
	}

	in.City = optionalString(raw, "city", &errs)
	in.Street = optionalString(raw, "street", &errs)
	in.Message = optionalString(raw, "message", &errs)
	in.Notes = optionalString(raw, "notes", &errs)
	in.Source = optionalString(raw, "source", &errs)

	for _, key := range UTMKeys {
		if val := optionalString(raw, key, &errs); val != "" {
			if in.UTM == nil {
				in.UTM = make(map[string]string, len(UTMKeys))
			}
			in.UTM[key] = val
		}
	}

	in.Timestamp = optionalTimestamp(raw, "timestamp", &errs)

	return in, errs
}

// hasValue reports whether key holds a non-blank string.
func hasValue(raw map[string]any, key string) bool {
	s, ok := raw[key].(string)
	return ok && strings.TrimSpace(s) != ""
}

// optionalString returns the trimmed string at key. Absent and null values yield
// "", any other non-string type is a violation.
func optionalString(raw map[string]any, key string, errs *Violations) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		errs.add(key, "must be a string")
		return ""
	}
	return strings.TrimSpace(s)
}

func optionalTimestamp(raw map[string]any, key string, errs *Violations) *int64 {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	num, ok := v.(json.Number)
	if !ok {
		errs.add(key, "must be a number")
		return nil
	}
	if ts, err := num.Int64(); err == nil {
		return &ts
	}
	f, err := num.Float64()
	if err != nil || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		errs.add(key, "must be a millisecond timestamp")
		return nil
	}
	ts := int64(f)
	return &ts
}
