package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/job-recommender/internal/rendering"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Server   string
	Port     int
	Sender   string
	Password string
	UseTLS   bool
}

// EmailSender sends HTML digests with a plain-text fallback.
type EmailSender struct {
	cfg        SMTPConfig
	recipients []string
	opts       rendering.EmailOptions
	timeout    time.Duration
}

// NewEmailSender creates a sender for recipients.
func NewEmailSender(cfg SMTPConfig, recipients []string, opts rendering.EmailOptions) *EmailSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailSender{cfg: cfg, recipients: recipients, opts: opts, timeout: 30 * time.Second}
}

// Name implements Notifier.
func (s *EmailSender) Name() string { return "email" }

// Notify renders the digest and sends it to every recipient in one message.
func (s *EmailSender) Notify(ctx context.Context, d Digest) error {
	if len(s.recipients) == 0 {
		return &Error{Channel: s.Name(), Message: "no recipients configured"}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Channel: s.Name(), Message: "cancelled", Cause: err}
	}

	email, err := rendering.RenderEmail(d.Ranked, d.Preferences, d.GeneratedAt, s.opts)
	if err != nil {
		return &Error{Channel: s.Name(), Message: "failed to render digest", Cause: err}
	}

	msg, err := BuildMessage(s.cfg.Sender, s.recipients, email, d.Attachments, d.GeneratedAt)
	if err != nil {
		return &Error{Channel: s.Name(), Message: "failed to build message", Cause: err}
	}

	if err := s.send(msg); err != nil {
		return &Error{Channel: s.Name(), Message: "failed to send", Cause: err}
	}

	log.Printf("[NOTIFY] Emailed %d recommendations to %s", len(d.Ranked), strings.Join(s.recipients, ", "))
	return nil
}

// TestConnection dials and authenticates without sending anything.
func (s *EmailSender) TestConnection() error {
	c, err := s.connect()
	if err != nil {
		return &Error{Channel: s.Name(), Message: "connection test failed", Cause: err}
	}
	return c.Quit()
}

func (s *EmailSender) connect() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start SMTP session: %w", err)
	}

	if s.cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Server, MinVersion: tls.VersionTLS12}); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if s.cfg.Password != "" {
		auth := smtp.PlainAuth("", s.cfg.Sender, s.cfg.Password, s.cfg.Server)
		if err := c.Auth(auth); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
	}
	return c, nil
}

func (s *EmailSender) send(msg []byte) error {
	c, err := s.connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Mail(s.cfg.Sender); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range s.recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}
	return c.Quit()
}

// BuildMessage assembles a multipart/mixed message whose first part is a
// multipart/alternative text+HTML body, followed by base64 attachments.
// Attachment paths that do not exist are skipped.
func BuildMessage(from string, to []string, email *rendering.Email, attachments []string, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mixed := multipart.NewWriter(&body)

	var alt bytes.Buffer
	altWriter := multipart.NewWriter(&alt)
	if err := writeQuotedPart(altWriter, "text/plain; charset=UTF-8", email.Text); err != nil {
		return nil, err
	}
	if err := writeQuotedPart(altWriter, "text/html; charset=UTF-8", email.HTML); err != nil {
		return nil, err
	}
	if err := altWriter.Close(); err != nil {
		return nil, err
	}

	altPart, err := mixed.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"multipart/alternative; boundary=" + altWriter.Boundary()},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(alt.Bytes()); err != nil {
		return nil, err
	}

	for _, path := range attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("[NOTIFY] Attachment %s not found, skipping", path)
				continue
			}
			return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
		}
		if err := writeAttachment(mixed, filepath.Base(path), data); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", date.Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixed.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func writeQuotedPart(w *multipart.Writer, contentType, content string) error {
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}

func writeAttachment(w *multipart.Writer, name string, data []byte) error {
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {ctype},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
	})
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := part.Write([]byte(encoded[:76] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err = part.Write([]byte(encoded + "\r\n"))
	return err
}
