// internal/notifications/email.go

package notifications

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/skillswap/skillswap-backend/internal/messaging"
)

const previewLimit = 120

// EmailNotifier sends an email digest of a message to recipients who had
// no open connection when it arrived. Implements messaging.Notifier.
type EmailNotifier struct {
	apiKey   string
	from     string
	fromName string
}

func NewEmailNotifier(apiKey, from, fromName string) *EmailNotifier {
	return &EmailNotifier{apiKey: apiKey, from: from, fromName: fromName}
}

func (n *EmailNotifier) NotifyOfflineMessage(ctx context.Context, recipientEmail string, msg *messaging.Message) error {
	if recipientEmail == "" {
		return nil
	}

	preview := msg.Content
	if utf8.RuneCountInString(preview) > previewLimit {
		preview = string([]rune(preview)[:previewLimit]) + "..."
	}

	from := mail.NewEmail(n.fromName, n.from)
	to := mail.NewEmail("", recipientEmail)
	subject := "You have a new message on SkillSwap"
	plainText := fmt.Sprintf("You received a new message while you were away:\n\n%q\n\nOpen SkillSwap to reply.", preview)

	email := mail.NewSingleEmail(from, subject, to, plainText, "")
	client := sendgrid.NewSendClient(n.apiKey)

	response, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sending email via SendGrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid returned error status: %d", response.StatusCode)
	}
	return nil
}

// LogNotifier stands in when no SendGrid key is configured (local dev).
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyOfflineMessage(ctx context.Context, recipientEmail string, msg *messaging.Message) error {
	log.Printf("Offline notification (email disabled): to=%s conversation=%d", recipientEmail, msg.ConversationID)
	return nil
}
