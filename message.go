package main

import (
	"bytes"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContactMessage is one contact-form submission. It lives only for the
// duration of the request that carried it.
type ContactMessage struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Email is a composed outbound message ready for a Sender.
type Email struct {
	FromName  string
	From      string
	To        string
	ReplyTo   string
	Subject   string
	Text      string
	MessageID string
	Date      time.Time
}

// composeEmail turns a submission into a message addressed to the operator
// mailbox. The submitter only ever appears as display name and Reply-To so
// the From address cannot be spoofed.
func composeEmail(msg ContactMessage, mailbox string) Email {
	return Email{
		FromName:  msg.Name,
		From:      mailbox,
		To:        mailbox,
		ReplyTo:   msg.Email,
		Subject:   msg.Subject,
		Text:      fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Message),
		MessageID: newMessageID(mailbox),
		Date:      time.Now(),
	}
}

func newMessageID(mailbox string) string {
	domain := "localhost"
	if at := strings.LastIndex(mailbox, "@"); at >= 0 && at < len(mailbox)-1 {
		domain = mailbox[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

var headerSanitizer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(s string) string {
	return strings.TrimSpace(headerSanitizer.Replace(s))
}

// Bytes renders the message as RFC 5322 text with CRLF line endings.
func (e Email) Bytes() []byte {
	from := mail.Address{Name: headerValue(e.FromName), Address: headerValue(e.From)}
	to := mail.Address{Address: headerValue(e.To)}

	var b bytes.Buffer
	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	writeHeader("From", from.String())
	writeHeader("To", to.String())
	if e.ReplyTo != "" {
		replyTo := mail.Address{Address: headerValue(e.ReplyTo)}
		writeHeader("Reply-To", replyTo.String())
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", headerValue(e.Subject)))
	if !e.Date.IsZero() {
		writeHeader("Date", e.Date.Format(time.RFC1123Z))
	}
	if e.MessageID != "" {
		writeHeader("Message-ID", e.MessageID)
	}
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/plain; charset="UTF-8"`)
	writeHeader("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(e.Text, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}
