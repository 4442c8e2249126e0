package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"wmstriage/config"
)

// Notifier delivers a composed message. Callers log failures and move on.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogFunc is the logging signature used by notifiers.
type LogFunc func(format string, args ...any)

// SMTPNotifier sends mail through an SMTP relay. net/smtp upgrades to
// STARTTLS when the server offers it.
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	DebugLog LogFunc
}

func NewSMTPNotifier(cfg *config.NotifyConfig) *SMTPNotifier {
	n := &SMTPNotifier{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     cfg.From,
		sendMail: smtp.SendMail,
	}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return n
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("notify: message %q has no recipient", msg.Subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := buildMIME(n.from, msg)
	if err != nil {
		return fmt.Errorf("notify: build message: %w", err)
	}
	if err := n.sendMail(n.addr, n.auth, n.from, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("notify: send to %s: %w", msg.To, err)
	}
	if n.DebugLog != nil {
		n.DebugLog("notify: sent %q to %s", msg.Subject, msg.To)
	}
	return nil
}

// buildMIME renders msg as a multipart/mixed message with a plain-text body
// and base64 attachments.
func buildMIME(from string, msg Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		enc := base64.NewEncoder(base64.StdEncoding, &lineWrapper{w: part})
		if _, err := enc.Write(a.Content); err != nil {
			return nil, err
		}
		enc.Close()
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&out, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// lineWrapper breaks base64 output into 76-column lines.
type lineWrapper struct {
	w io.Writer
	n int
}

func (l *lineWrapper) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		chunk := p
		if room := 76 - l.n; len(chunk) > room {
			chunk = chunk[:room]
		}
		if _, err := l.w.Write(chunk); err != nil {
			return written, err
		}
		written += len(chunk)
		l.n += len(chunk)
		p = p[len(chunk):]
		if l.n == 76 {
			if _, err := l.w.Write([]byte("\r\n")); err != nil {
				return written, err
			}
			l.n = 0
		}
	}
	return written, nil
}

// LogNotifier writes messages to the log instead of sending them. It is used
// when mail delivery is disabled.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Printf("notify: [%s] to=%s subject=%q\n%s", msg.Audience, msg.To, msg.Subject, strings.TrimSpace(msg.Body))
	for _, a := range msg.Attachments {
		log.Printf("notify: attachment %s (%d bytes)", a.Filename, len(a.Content))
	}
	return nil
}

// New returns the notifier selected by configuration.
func New(cfg *config.NotifyConfig) Notifier {
	if !cfg.Enabled {
		return LogNotifier{}
	}
	return NewSMTPNotifier(cfg)
}
