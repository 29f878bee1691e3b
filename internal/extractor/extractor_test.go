package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/gateway"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const nullRecord = `{"fullName":null,"workEmail":null,"company":null,"phone":null,"projectType":null,"timeline":null,"goal":null}`

type stubGateway struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []gateway.Request
}

func (s *stubGateway) Generate(_ context.Context, req gateway.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.reply, s.err
}

func user(text string) transcript.Turn {
	return transcript.Turn{Role: transcript.RoleUser, Text: text}
}

func assistant(text string) transcript.Turn {
	return transcript.Turn{Role: transcript.RoleAssistant, Text: text}
}

func value(t *testing.T, v *string) string {
	t.Helper()
	require.NotNil(t, v)
	return *v
}

func TestExtract_RequestShape(t *testing.T) {
	stub := &stubGateway{reply: nullRecord}
	ext := New(stub, 0.1, nil, discardLogger())

	ext.Extract(context.Background(), transcript.Transcript{user("hi"), assistant("hello")})

	require.Len(t, stub.reqs, 1)
	req := stub.reqs[0]
	assert.True(t, req.Structured)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, systemPrompt, req.System)
	require.Len(t, req.Turns, 1)
	assert.Contains(t, req.Turns[0].Text, "User: hi\nAssistant: hello\n---")
}

func TestExtract_NormalizesModelOutput(t *testing.T) {
	stub := &stubGateway{reply: "```json\n" + `{"fullName":"hamid abbas","workEmail":"Hamid@Emebron.com","company":"emebron","phone":null,"projectType":"bot for support tickets","timeline":"3 months","goal":"N/A"}` + "\n```"}
	ext := New(stub, 0.1, nil, discardLogger())

	rec := ext.Extract(context.Background(), transcript.Transcript{user("hello")})

	assert.Equal(t, "Hamid Abbas", value(t, rec.FullName))
	assert.Equal(t, "hamid@emebron.com", value(t, rec.WorkEmail))
	assert.Equal(t, "Emebron", value(t, rec.Company))
	assert.Equal(t, lead.ProjectCustomerSupport, value(t, rec.ProjectType))
	assert.Equal(t, lead.TimelineOneToThree, value(t, rec.Timeline))
	assert.Nil(t, rec.Phone)
	assert.Nil(t, rec.Goal)
}

func TestExtract_TimelineFromTranscript(t *testing.T) {
	ext := New(&stubGateway{reply: nullRecord}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		user("I want to build a chatbot"),
		assistant("Great. Any constraints?"),
		user("my timeline is 3 months"),
	})
	assert.Equal(t, "1-3 months", value(t, rec.Timeline))
}

func TestExtract_NameFromTranscript(t *testing.T) {
	ext := New(&stubGateway{reply: nullRecord}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		user("my name is hamid abbas"),
	})
	assert.Equal(t, "Hamid Abbas", value(t, rec.FullName))
}

func TestExtract_SingleWordCompanyReply(t *testing.T) {
	ext := New(&stubGateway{reply: nullRecord}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		user("I need a support bot"),
		assistant("Happy to help. What company are you with?"),
		user("emebron"),
	})
	assert.Equal(t, "Emebron", value(t, rec.Company))
}

func TestExtract_FillersAreNotValues(t *testing.T) {
	ext := New(&stubGateway{reply: `{"company":"yes","fullName":"okay"}`}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		assistant("What company are you with?"),
		user("yes"),
		assistant("And your name?"),
		user("no"),
	})
	assert.Nil(t, rec.Company)
	assert.Nil(t, rec.FullName)
}

func TestExtract_ModelValueWinsOverHeuristics(t *testing.T) {
	ext := New(&stubGateway{reply: `{"company":"Emebron Ltd"}`}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		assistant("What company are you with?"),
		user("emebron"),
	})
	assert.Equal(t, "Emebron Ltd", value(t, rec.Company))
}

func TestExtract_UnparseableReturnsEmpty(t *testing.T) {
	for _, reply := range []string{
		"I'm sorry, I can't help with that.",
		`{"fullName": "Hamid"`,
		`["Hamid"]`,
		"",
	} {
		ext := New(&stubGateway{reply: reply}, 0.1, nil, discardLogger())
		rec := ext.Extract(context.Background(), transcript.Transcript{user("my name is hamid abbas")})
		assert.Equal(t, lead.Empty(), rec, "reply %q", reply)
	}
}

func TestExtract_GatewayErrorReturnsEmpty(t *testing.T) {
	ext := New(&stubGateway{err: errors.New("rate limited")}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{user("my name is hamid abbas")})
	assert.Equal(t, lead.Empty(), rec)
}

func TestExtract_EmptyTranscriptSkipsGateway(t *testing.T) {
	stub := &stubGateway{reply: nullRecord}
	rec := New(stub, 0.1, nil, discardLogger()).Extract(context.Background(), nil)
	assert.Equal(t, lead.Empty(), rec)
	assert.Empty(t, stub.reqs)
}

func TestExtract_Idempotent(t *testing.T) {
	stub := &stubGateway{reply: `{"projectType":"order status lookups","goal":"Customers keep emailing about orders. We want to automate that. Also voice later."}`}
	ext := New(stub, 0.1, nil, discardLogger())
	conv := transcript.Transcript{
		user("I want to automate order status questions"),
		assistant("What company are you with?"),
		user("emebron"),
		assistant("What's your timeline?"),
		user("about 2 months, email me at hamid@emebron.com"),
	}

	first := ext.Extract(context.Background(), conv)
	second := ext.Extract(context.Background(), conv)

	assert.Equal(t, first, second)
	assert.Equal(t, lead.ProjectOrderTracking, value(t, first.ProjectType))
	assert.Equal(t, lead.TimelineOneToThree, value(t, first.Timeline))
	assert.Equal(t, "hamid@emebron.com", value(t, first.WorkEmail))
	assert.Equal(t, "Emebron", value(t, first.Company))
	assert.True(t, strings.HasSuffix(value(t, first.Goal), "automate that."))
}

func TestParseRecord_Aliases(t *testing.T) {
	rec, err := parseRecord(`Here you go: {"full_name":"Ana","email":"ana@x.io","phone_number":4477009001}`)
	require.NoError(t, err)
	assert.Equal(t, "Ana", value(t, rec.FullName))
	assert.Equal(t, "ana@x.io", value(t, rec.WorkEmail))
	assert.Equal(t, "4477009001", value(t, rec.Phone))
}

func TestHeuristics(t *testing.T) {
	rec := heuristics(transcript.Transcript{
		user("hi, call me anne-marie and I work at Acme Labs."),
		assistant("What's the best phone number to reach you?"),
		user("sure, +44 7700 900123"),
		assistant("And how soon do you need this?"),
		user("whenever really"),
	})
	assert.Equal(t, "Anne-Marie", value(t, rec.FullName))
	assert.Equal(t, "Acme Labs", value(t, rec.Company))
	assert.Equal(t, "+44 7700 900123", value(t, rec.Phone))
	assert.Nil(t, rec.Timeline)
}

func TestHeuristics_CallbackPhrasesAreNotNames(t *testing.T) {
	for _, text := range []string{
		"yes, call me tomorrow afternoon",
		"sure, call me on 07700 900123",
		"please call me back",
		"call me later if that works",
	} {
		rec := heuristics(transcript.Transcript{user(text)})
		assert.Nil(t, rec.FullName, "text %q", text)
	}
}

func TestHeuristics_CallMeStopsAtCommonWord(t *testing.T) {
	rec := heuristics(transcript.Transcript{user("call me Priya tomorrow")})
	assert.Equal(t, "Priya", value(t, rec.FullName))
}

func TestHeuristics_NameReplyWithCommonWords(t *testing.T) {
	for _, reply := range []string{"just browsing", "looking around", "nobody"} {
		rec := heuristics(transcript.Transcript{
			assistant("What's your name?"),
			user(reply),
		})
		assert.Nil(t, rec.FullName, "reply %q", reply)
	}

	rec := heuristics(transcript.Transcript{
		assistant("What's your name?"),
		user("Hamid Abbas"),
	})
	assert.Equal(t, "Hamid Abbas", value(t, rec.FullName))
}

func TestHeuristics_CompanyRejectsPlaces(t *testing.T) {
	for _, text := range []string{
		"I work at home mostly",
		"I work for myself",
		"I work remotely for now",
	} {
		rec := heuristics(transcript.Transcript{user(text)})
		assert.Nil(t, rec.Company, "text %q", text)
	}

	rec := heuristics(transcript.Transcript{
		assistant("What company are you with?"),
		user("freelance"),
	})
	assert.Nil(t, rec.Company)
}

func TestExtract_CallbackRequestLeavesNameEmpty(t *testing.T) {
	ext := New(&stubGateway{reply: nullRecord}, 0.1, nil, discardLogger())
	rec := ext.Extract(context.Background(), transcript.Transcript{
		assistant("What's the best way to reach you?"),
		user("yes, call me tomorrow afternoon"),
		assistant("What's your name?"),
		user("just browsing"),
	})
	assert.Nil(t, rec.FullName)
	assert.Nil(t, rec.Company)
}
