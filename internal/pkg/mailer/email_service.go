package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendOpsAlert(subject, detail string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	alertEmail  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, alertEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		alertEmail:  alertEmail,
	}
}

// SendOpsAlert mails the on-call address about a condition that needs a
// human: ledger drift, missing default provider, repeated webhook failures.
func (s *emailService) SendOpsAlert(subject, detail string) error {
	if s.alertEmail == "" {
		return fmt.Errorf("no ops alert email configured")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", s.alertEmail)
	m.SetHeader("Subject", "[billing] "+subject)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<pre style="background: #f6f6f6; padding: 10px;">%s</pre>
			<p>Sent automatically by the billing service.</p>
		</div>
	`, subject, detail)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send ops alert: %v\n", err)
		return err
	}

	return nil
}
