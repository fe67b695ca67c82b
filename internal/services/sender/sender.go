// Package sender отправляет письма восстановления пароля из очереди уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// SenderService доставляет сообщения очереди получателям по SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр SenderService.
func New(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendResetEmail разбирает сообщение очереди и отправляет письмо
// с одноразовой ссылкой восстановления пароля.
func (s *SenderService) SendResetEmail(body []byte) error {
	var message models.ResetEmail
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Password reset request"
	bodyText := fmt.Sprintf("Hello, %s!\n\n"+
		"We received a request to reset your password.\n"+
		"Follow the link below to choose a new one:\n\n%s\n\n"+
		"The link expires at %s. If you did not request a reset, ignore this email.",
		message.Name, message.ResetURL, message.ExpiresAt.Format("15:04 02.01.2006 MST"))

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("to", addr), sl.Err(err))
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		s.log.Error("failed to open DATA stream", sl.Err(err))
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write message body", sl.Err(err))
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		s.log.Error("failed to close DATA stream", sl.Err(err))
		return err
	}

	return client.Quit()
}
