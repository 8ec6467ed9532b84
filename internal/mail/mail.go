// Package mail delivers reminder notifications over SMTP.
package mail

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type Config struct {
	Host string
	Port int
	From string
}

type Mailer struct {
	addr string
	from string
}

func New(config Config) *Mailer {
	return &Mailer{
		addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		from: config.From,
	}
}

// Send delivers one plain-text mail. The configured address is used
// as the envelope sender when from is empty. Delivery is attempted
// once; the caller decides what a failure means.
func (m *Mailer) Send(from string, to []string, subject, body string) error {
	if from == "" {
		from = m.from
	}
	msg := strings.Builder{}
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, nil, from, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", strings.Join(to, ","), err)
	}
	return nil
}
