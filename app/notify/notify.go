// Package notify delivers backup failure alerts by email
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/notify"
)

// Sender delivers text to a destination, implemented by notify.Email
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Params for NewService
type Params struct {
	SMTP      notify.SMTPParams
	FromEmail string
	ToEmails  []string
	HostName  string
}

// Service sends html alerts to a fixed list of recipients
type Service struct {
	sender    Sender
	fromEmail string
	toEmails  []string
	hostName  string
	now       func() time.Time
}

// NewService makes an email based Service, nil if there are no recipients
func NewService(p Params) *Service {
	if len(p.ToEmails) == 0 {
		return nil
	}
	p.SMTP.ContentType = "text/html"
	return &Service{
		sender:    notify.NewEmail(p.SMTP),
		fromEmail: p.FromEmail,
		toEmails:  p.ToEmails,
		hostName:  p.HostName,
		now:       time.Now,
	}
}

// Send delivers a message with the given subject to all recipients
func (s *Service) Send(ctx context.Context, subj, text string) error {
	q := url.Values{}
	q.Set("from", s.fromEmail)
	q.Set("subject", subj)
	dest := "mailto:" + strings.Join(s.toEmails, ",") + "?" + q.Encode()
	if err := s.sender.Send(ctx, dest, text); err != nil {
		return fmt.Errorf("failed to send %q: %w", subj, err)
	}
	return nil
}

// BackupFailed sends the backup failure alert
func (s *Service) BackupFailed(ctx context.Context, dir string, backupErr error) error {
	body, err := s.makeErrorHTML(dir, backupErr)
	if err != nil {
		return err
	}
	return s.Send(ctx, "jobtrack backup failed", body)
}

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta name="viewport" content="width=device-width" />
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<style type="text/css">
		body { font-family: "Arial"; font-size: 1.0em; }
		pre { padding: 0.6em; font-size: 0.8em; background-color: #E8E2A0; white-space: pre-wrap; }
		.bold { color: #882828; font-weight: 900; }
	</style>
</head>
<body>
	<p>Job tracker backup failed on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
	<ul><li>Directory: <span class="bold">{{.Dir}}</span></li></ul>
	<pre>{{.Error}}</pre>
</body>
</html>
`))

func (s *Service) makeErrorHTML(dir string, backupErr error) (string, error) {
	data := struct {
		Host  string
		Dir   string
		TS    time.Time
		Error string
	}{Host: s.hostName, Dir: dir, TS: s.now(), Error: backupErr.Error()}

	buf := bytes.Buffer{}
	if err := errorTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}
