package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

// Accepted spellings per field. Models drift to snake_case under some
// providers' JSON modes.
var fieldKeys = map[string][]string{
	"fullName":    {"fullName", "full_name", "name"},
	"workEmail":   {"workEmail", "work_email", "email"},
	"company":     {"company", "company_name", "companyName"},
	"phone":       {"phone", "phone_number", "phoneNumber"},
	"projectType": {"projectType", "project_type"},
	"timeline":    {"timeline"},
	"goal":        {"goal", "summary"},
}

var errNotObject = errors.New("extraction response is not a JSON object")

// parseRecord decodes model output into a record. Scalars of any JSON type
// are accepted and stringified; arrays and nested objects are ignored.
func parseRecord(raw string) (lead.Record, error) {
	body := stripFences(raw)
	if !strings.HasPrefix(body, "{") {
		return lead.Record{}, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return lead.Record{}, fmt.Errorf("unmarshal extraction: %w", err)
	}

	pick := func(name string) *string {
		for _, key := range fieldKeys[name] {
			if v, ok := fields[key]; ok {
				if s, ok := scalar(v); ok {
					return &s
				}
			}
		}
		return nil
	}
	return lead.Record{
		FullName:    pick("fullName"),
		WorkEmail:   pick("workEmail"),
		Company:     pick("company"),
		Phone:       pick("phone"),
		ProjectType: pick("projectType"),
		Timeline:    pick("timeline"),
		Goal:        pick("goal"),
	}, nil
}

func scalar(v json.RawMessage) (string, bool) {
	var anyV any
	if err := json.Unmarshal(v, &anyV); err != nil {
		return "", false
	}
	switch x := anyV.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

// stripFences removes a wrapping markdown code fence and any prose around
// the outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}
