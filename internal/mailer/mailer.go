package mailer

import "log"

// Mailer sends a plain-text email to one or more recipients. Dispatch failures
// must not roll back the transaction that triggered the send.
type Mailer interface {
	Send(subject, body string, to []string) error
}

// SendAsync dispatches the email on a separate goroutine so outbound mail
// never gates the HTTP response. Failures are logged, not returned.
func SendAsync(m Mailer, subject, body string, to []string) {
	go func() {
		if err := m.Send(subject, body, to); err != nil {
			log.Printf("mail dispatch failed (subject=%q, to=%v): %v", subject, to, err)
		}
	}()
}
