// Package email sends transactional email through a provider-agnostic
// EmailSender.
//
// Three implementations are available and selected with Config.Provider:
//
//   - "postmark": Postmark transactional API
//   - "ses": Amazon SES v2
//   - "dev": DevSender, which writes each message as HTML and JSON files to a
//     directory instead of sending it
//
// Every implementation validates SendEmailParams before talking to the
// provider, so a malformed recipient fails fast with ErrInvalidParams.
//
//	sender, err := email.New(ctx, cfg)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "owner@example.com",
//	    Subject:  "Your name entered its grace period",
//	    BodyHTML: html,
//	    BodyText: text,
//	    Tag:      "arns-grace-period-start",
//	})
package email
