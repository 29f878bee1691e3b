package extractor

import (
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

var (
	namePattern     = regexp.MustCompile(`(?i)\b(?:my name is|my name's|call me)\s+([\p{L}'\-]+(?:\s+[\p{L}'\-]+){0,2})`)
	companyPattern  = regexp.MustCompile(`(?i)\b(?:i work (?:at|for)|(?:my|our) company is|company name is|company's called|company is called)\s+([\p{L}\p{N}&.\-]+(?:\s+[\p{L}\p{N}&.\-]+){0,2})`)
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s\-().]{5,}\d`)
	wordsOnly       = regexp.MustCompile(`^[\p{L}'\-]+(?:\s+[\p{L}'\-]+){0,2}$`)
	companyQuestion = regexp.MustCompile(`(?i)\b(company|organi[sz]ation|business name|who do you work)\b`)
	nameQuestion    = regexp.MustCompile(`(?i)\b(your name|who am i speaking|what should i call you)\b`)
	phoneQuestion   = regexp.MustCompile(`(?i)\b(phone|mobile|number to reach)\b`)
	timelineCue     = regexp.MustCompile(`(?i)\b(timeline|timeframe|launch|go live|live by|ready by|ready in|within|asap|as soon as|urgent|deadline)\b`)
	timelineAsk     = regexp.MustCompile(`(?i)\b(timeline|timeframe|how soon|when (?:would|do) you|when are you)\b`)
)

// Words that end a captured name or company phrase.
var stopWords = map[string]struct{}{
	"and": {}, "from": {}, "at": {}, "with": {}, "i": {}, "im": {}, "i'm": {}, "my": {},
	"the": {}, "here": {}, "by": {}, "we": {}, "our": {}, "in": {}, "but": {}, "so": {},
	"no": {}, "not": {}, "yes": {}, "sure": {}, "ok": {}, "okay": {}, "thanks": {},
	"why": {}, "what": {}, "how": {}, "who": {},
}

// Common words that never start a name or company. "call me back" and
// "I work at home" read like captures but carry no value.
var commonWords = map[string]struct{}{
	"tomorrow": {}, "today": {}, "tonight": {}, "yesterday": {}, "now": {}, "soon": {},
	"later": {}, "anytime": {}, "whenever": {}, "when": {}, "back": {}, "on": {}, "at": {},
	"after": {}, "before": {}, "about": {}, "around": {}, "next": {}, "this": {}, "any": {},
	"morning": {}, "afternoon": {}, "evening": {}, "night": {}, "week": {}, "weekend": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {},
	"saturday": {}, "sunday": {}, "please": {}, "maybe": {}, "just": {}, "only": {},
	"browsing": {}, "looking": {}, "curious": {}, "nobody": {}, "none": {}, "nothing": {},
	"anonymous": {}, "home": {}, "mostly": {}, "remotely": {}, "remote": {}, "myself": {},
	"freelance": {}, "freelancing": {}, "self-employed": {}, "a": {}, "an": {}, "it": {},
	"that": {}, "there": {}, "moment": {}, "if": {}, "to": {}, "for": {}, "via": {},
	"email": {}, "phone": {}, "directly": {}, "asap": {}, "again": {},
}

func titled(s string) (string, bool)      { return lead.TitleCase(s), true }
func capitalized(s string) (string, bool) { return lead.CapitalizeFirst(s), true }

// heuristics scans the visitor's turns for fields that have a reliable
// surface form. Values are normalized as they are found and later turns
// override earlier ones.
func heuristics(t transcript.Transcript) lead.Record {
	var r lead.Record
	prevAssistant := ""
	for _, turn := range t {
		if turn.Role != transcript.RoleUser {
			prevAssistant = turn.Text
			continue
		}
		text := strings.TrimSpace(turn.Text)
		question := strings.HasSuffix(text, "?")

		if m := namePattern.FindStringSubmatch(text); m != nil {
			assign(&r.FullName, trimPhrase(m[1]), titled)
		} else if nameQuestion.MatchString(prevAssistant) && !question {
			if reply := strings.Trim(text, ".,!;: "); wordsOnly.MatchString(reply) && !hasCommonWord(reply) {
				assign(&r.FullName, trimPhrase(reply), titled)
			}
		}

		if m := companyPattern.FindStringSubmatch(text); m != nil {
			assign(&r.Company, trimPhrase(m[1]), capitalized)
		} else if companyQuestion.MatchString(prevAssistant) && !question {
			if word, ok := singleToken(text); ok {
				assign(&r.Company, word, capitalized)
			}
		}

		if emails := emailPattern.FindAllString(text, -1); len(emails) > 0 {
			assign(&r.WorkEmail, emails[len(emails)-1], lead.NormalizeEmail)
		}

		if phoneQuestion.MatchString(prevAssistant) {
			if m := phonePattern.FindString(text); m != "" {
				assign(&r.Phone, m, lead.NormalizePhone)
			}
		}

		if timelineCue.MatchString(text) || timelineAsk.MatchString(prevAssistant) {
			assign(&r.Timeline, text, lead.NormalizeTimeline)
		}
	}
	return r
}

// assign stores the normalized value, leaving dst alone when v is empty, a
// filler, or rejected by norm.
func assign(dst **string, v string, norm func(string) (string, bool)) {
	v = strings.TrimSpace(v)
	if v == "" || lead.IsFiller(v) {
		return
	}
	out, ok := norm(v)
	if !ok || !lead.Present(&out) {
		return
	}
	*dst = &out
}

// trimPhrase cuts a captured phrase at the first stop word, common word or
// punctuation.
func trimPhrase(s string) string {
	var out []string
	for _, w := range strings.Fields(s) {
		clean := strings.Trim(w, ".,!?;:")
		if clean == "" || isStopWord(clean) || isCommonWord(clean) {
			break
		}
		out = append(out, clean)
		if clean != w {
			break
		}
	}
	return strings.Join(out, " ")
}

// singleToken returns the reply when it is exactly one word.
func singleToken(s string) (string, bool) {
	fields := strings.Fields(strings.Trim(s, ".,!;: "))
	if len(fields) != 1 {
		return "", false
	}
	w := fields[0]
	if isStopWord(w) || isCommonWord(w) || lead.IsFiller(w) || strings.Contains(w, "@") {
		return "", false
	}
	return w, true
}

func isStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

func isCommonWord(w string) bool {
	_, ok := commonWords[strings.ToLower(w)]
	return ok
}

// hasCommonWord reports whether any word of s is a common word.
func hasCommonWord(s string) bool {
	for _, w := range strings.Fields(s) {
		if isCommonWord(w) {
			return true
		}
	}
	return false
}
