package main

import (
	"context"
	"errors"
)

// Dispatch is the outcome of handing one Email to a Sender.
type Dispatch struct {
	Delivered bool
	Reason    string // transport error text when not delivered
	MessageID string
}

func delivered(e Email) Dispatch {
	return Dispatch{Delivered: true, MessageID: e.MessageID}
}

func failed(err error) Dispatch {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return Dispatch{Reason: reason}
}

// Sender hands a composed Email to a mail transport. Send blocks until the
// transport accepts or rejects the message, or ctx expires.
type Sender interface {
	Send(ctx context.Context, e Email) Dispatch
}

// LogSender prints messages instead of sending them.
// Useful for development and testing.
type LogSender struct {
	log *Logger
}

func NewLogSender(log *Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, e Email) Dispatch {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	s.log.Printf(`
================================================================================
EMAIL (dev mode - not actually sent)
================================================================================
From:     %s <%s>
To:       %s
Reply-To: %s
Subject:  %s
--------------------------------------------------------------------------------
%s
================================================================================
`, e.FromName, e.From, e.To, e.ReplyTo, e.Subject, e.Text)
	return delivered(e)
}

var errUnknownDriver = errors.New("unknown mail driver")

// newSender picks the transport named by cfg.MailDriver.
func newSender(cfg *Config, log *Logger) (Sender, error) {
	switch cfg.MailDriver {
	case mailDriverSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPassword), nil
	case mailDriverLog:
		return NewLogSender(log), nil
	}
	return nil, errUnknownDriver
}
