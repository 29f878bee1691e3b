package lead

import "strings"

// Record is the structured view of a prospect extracted from a transcript.
// Every field is optional; nil means "not known yet".
type Record struct {
	FullName    *string `json:"fullName"`
	WorkEmail   *string `json:"workEmail"`
	Company     *string `json:"company"`
	Phone       *string `json:"phone"`
	ProjectType *string `json:"projectType"`
	Timeline    *string `json:"timeline"`
	Goal        *string `json:"goal"`
}

// Empty returns a record with every field unset.
func Empty() Record { return Record{} }

// Placeholder values the model writes instead of leaving a field null.
var sentinels = map[string]struct{}{
	"":     {},
	"null": {},
	"n/a":  {},
	"na":   {},
	"none": {},
}

// Present reports whether v holds a real value.
func Present(v *string) bool {
	if v == nil {
		return false
	}
	_, isSentinel := sentinels[strings.ToLower(strings.TrimSpace(*v))]
	return !isSentinel
}

func (r Record) HasName() bool    { return Present(r.FullName) }
func (r Record) HasEmail() bool   { return Present(r.WorkEmail) }
func (r Record) HasCompany() bool { return Present(r.Company) }
func (r Record) HasPhone() bool   { return Present(r.Phone) }
func (r Record) HasTimeline() bool {
	return Present(r.Timeline)
}

// HasProjectInfo is true when either the project category or the goal is known.
func (r Record) HasProjectInfo() bool {
	return Present(r.ProjectType) || Present(r.Goal)
}

// IsEmpty reports whether no field carries a real value.
func (r Record) IsEmpty() bool {
	for _, f := range r.fields() {
		if Present(*f) {
			return false
		}
	}
	return true
}

// FilledCount returns how many fields carry a real value.
func (r Record) FilledCount() int {
	n := 0
	for _, f := range r.fields() {
		if Present(*f) {
			n++
		}
	}
	return n
}

// Merge overlays next on prev: a field present in next wins, otherwise the
// previous value is kept. Use it to stop a value from disappearing when a
// later extraction misses it.
func Merge(prev, next Record) Record {
	out := prev
	src := next.fields()
	dst := out.fields()
	for i := range src {
		if Present(*src[i]) {
			*dst[i] = *src[i]
		}
	}
	return out
}

func (r *Record) fields() []**string {
	return []**string{
		&r.FullName, &r.WorkEmail, &r.Company, &r.Phone,
		&r.ProjectType, &r.Timeline, &r.Goal,
	}
}

func strPtr(s string) *string { return &s }
