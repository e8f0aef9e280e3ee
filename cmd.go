package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio backend: content API and contact-message relay",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  runServe,
	})
	root.AddCommand(newSendCmd())
	return root
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	sender, err := newSender(cfg, log)
	if err != nil {
		return err
	}
	app, err := newApp(cfg, log, sender)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}

type sendOptions struct {
	name    string
	email   string
	subject string
	message string
}

// newSendCmd relays one message through the configured transport, which is
// the quickest way to check mail credentials.
func newSendCmd() *cobra.Command {
	var opts sendOptions
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one contact message through the configured mail transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sender, err := newSender(cfg, newDiscardLogger())
			if err != nil {
				return err
			}
			return sendOnce(cmd.Context(), cmd, cfg, sender, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "submitter name")
	f.StringVar(&opts.email, "email", "", "submitter email (Reply-To)")
	f.StringVar(&opts.subject, "subject", "Test message", "subject line")
	f.StringVar(&opts.message, "message", "This is a test message from the portfolio relay.", "message body")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func sendOnce(ctx context.Context, cmd *cobra.Command, cfg *Config, sender Sender, opts sendOptions) error {
	msg := ContactMessage{Name: opts.name, Email: opts.email, Subject: opts.subject, Message: opts.message}
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return errMissingFields
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.MailTimeout)
	defer cancel()

	result := sender.Send(ctx, composeEmail(msg, cfg.MailUser))
	if !result.Delivered {
		return errDispatchFailed(result.Reason)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %s\n", result.MessageID, cfg.MailUser)
	return nil
}
