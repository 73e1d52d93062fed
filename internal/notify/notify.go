// Package notify sends operational emails to probation practitioners.
// Delivery is best effort: callers log failures and carry on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"licences/internal/platform/privacy"
)

// Template identifiers, also used as metric labels.
const (
	TemplateReviewReminder   = "review-reminder"
	TemplateLicenceTimedOut  = "licence-timed-out"
	TemplateUnapprovedAtRisk = "unapproved-licence"
)

// Recipient is the practitioner an email goes to.
type Recipient struct {
	Email string
	Name  string
}

// Case is one offender listed in an email.
type Case struct {
	Name          string
	CRN           string
	NomsID        string
	LicenceID     int64
	ReleaseDate   *civil.Date
	LicenceStatus string
}

// Sender is implemented by Client and by NoopSender.
type Sender interface {
	SendReviewReminder(ctx context.Context, to Recipient, cases []Case) error
	SendLicenceTimedOut(ctx context.Context, to Recipient, c Case) error
	SendUnapprovedLicence(ctx context.Context, to Recipient, cases []Case) error
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(n *Client) {
		if c != nil {
			n.http = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Client) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Client posts email requests to the notification provider.
type Client struct {
	baseURL string
	apiKey  string
	from    string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL, apiKey, from string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type emailRequest struct {
	TemplateID      string            `json:"template_id"`
	EmailAddress    string            `json:"email_address"`
	ReplyTo         string            `json:"email_reply_to,omitempty"`
	Personalisation map[string]string `json:"personalisation"`
}

func (c *Client) SendReviewReminder(ctx context.Context, to Recipient, cases []Case) error {
	return c.send(ctx, TemplateReviewReminder, to, map[string]string{
		"comName":  to.Name,
		"caseList": caseList(cases),
		"count":    fmt.Sprint(len(cases)),
	})
}

func (c *Client) SendLicenceTimedOut(ctx context.Context, to Recipient, cs Case) error {
	return c.send(ctx, TemplateLicenceTimedOut, to, map[string]string{
		"comName":      to.Name,
		"prisonerName": cs.Name,
		"crn":          cs.CRN,
		"releaseDate":  formatDate(cs.ReleaseDate),
	})
}

func (c *Client) SendUnapprovedLicence(ctx context.Context, to Recipient, cases []Case) error {
	return c.send(ctx, TemplateUnapprovedAtRisk, to, map[string]string{
		"comName":  to.Name,
		"caseList": caseList(cases),
	})
}

func (c *Client) send(ctx context.Context, template string, to Recipient, personalisation map[string]string) error {
	if strings.TrimSpace(to.Email) == "" {
		return fmt.Errorf("%s: recipient has no email address", template)
	}
	body, err := json.Marshal(emailRequest{
		TemplateID:      template,
		EmailAddress:    to.Email,
		ReplyTo:         c.from,
		Personalisation: personalisation,
	})
	if err != nil {
		return fmt.Errorf("marshal %s email: %w", template, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/notifications/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s email request: %w", template, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send %s email: provider returned status %d", template, resp.StatusCode)
	}

	c.logger.InfoContext(ctx, "email sent",
		"template", template,
		"to", privacy.MaskEmail(to.Email),
	)
	return nil
}

// NoopSender logs instead of sending, for environments without a provider.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopSender{logger: logger}
}

func (n *NoopSender) SendReviewReminder(ctx context.Context, to Recipient, cases []Case) error {
	n.log(ctx, TemplateReviewReminder, to, len(cases))
	return nil
}

func (n *NoopSender) SendLicenceTimedOut(ctx context.Context, to Recipient, _ Case) error {
	n.log(ctx, TemplateLicenceTimedOut, to, 1)
	return nil
}

func (n *NoopSender) SendUnapprovedLicence(ctx context.Context, to Recipient, cases []Case) error {
	n.log(ctx, TemplateUnapprovedAtRisk, to, len(cases))
	return nil
}

func (n *NoopSender) log(ctx context.Context, template string, to Recipient, cases int) {
	n.logger.DebugContext(ctx, "notifications disabled, email not sent",
		"template", template,
		"to", privacy.MaskEmail(to.Email),
		"cases", cases,
	)
}

func caseList(cases []Case) string {
	lines := make([]string, 0, len(cases))
	for _, c := range cases {
		lines = append(lines, fmt.Sprintf("* %s (CRN: %s)", c.Name, c.CRN))
	}
	return strings.Join(lines, "\n")
}

func formatDate(d *civil.Date) string {
	if d == nil {
		return "not known"
	}
	return d.In(time.UTC).Format("2 January 2006")
}
