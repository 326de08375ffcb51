package emailsvc

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakmate/speakmate/core"
	testutil "github.com/speakmate/speakmate/tests"
)

var testConf = &core.Config{
	AppName:  "Speakmate",
	TestMode: true,
	Mail: core.MailConfig{
		FromName:        "Speakmate",
		FromAddress:     "noreply@school.test",
		FrontendBaseURL: "https://speakmate.test",
	},
}

type welcome struct {
	FullName, Email, Role, Class, Section string
}

func welcomeMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Ada L", Address: "ada@school.test"}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: welcome{FullName: "Ada L", Email: "ada@school.test", Role: "student", Class: "5", Section: "B"},
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, testutil.NopLogger{})

	svc.SendMessages(
		welcomeMessage(),
		&core.EmailMessage{Subject: "no recipients", BodyStr: "lost"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@school.test"}}, TemplateName: "nope"},
		&core.EmailMessage{To: []mail.Address{{Address: "bob@school.test"}}, Subject: "Plain", BodyStr: "hi"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)

	assert.Contains(t, sent[0].TextContent, "Hello Ada L,")
	assert.Contains(t, sent[0].TextContent, "student account (ada@school.test) is ready for class 5, section B.")
	assert.Contains(t, sent[0].TextContent, "Sign in at https://speakmate.test")
	assert.Contains(t, sent[0].TextContent, "The Speakmate team")
	assert.Contains(t, sent[0].HTMLContent, `<a href="https://speakmate.test">Sign in</a>`)

	assert.Equal(t, "hi", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, testutil.NopLogger{})
	msg := welcomeMessage()
	require.NoError(t, svc.templates.Render(msg))

	date := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	body, err := svc.format(*msg, date)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "From: \"Speakmate\" <noreply@school.test>\r\n"), body)
	assert.Contains(t, body, "Subject: [Speakmate] Welcome\r\n")
	assert.Contains(t, body, "To: \"Ada L\" <ada@school.test>\r\n")
	assert.Contains(t, body, "Date: Fri, 01 Mar 2024 10:00:00 +0000\r\n")
	assert.Contains(t, body, "Content-Type: text/plain")
	assert.Contains(t, body, "Content-Type: text/html")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, testutil.NopLogger{}).(*sendgridService)
	msg := welcomeMessage()
	require.NoError(t, svc.templates.Render(msg))

	m := svc.prepare(*msg)
	assert.Equal(t, "noreply@school.test", m.From.Address)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Speakmate] Welcome", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "ada@school.test", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
