package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoService struct {
	APIKey        string
	SenderEmail   string
	SenderName    string
	VerifyBaseURL string

	endpoint string
	client   *http.Client
	log      *zap.Logger
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// NewBrevoService returns nil when any credential is missing, which turns
// notifications off.
func NewBrevoService(apiKey, senderEmail, senderName, verifyBaseURL string, log *zap.Logger) *BrevoService {
	if apiKey == "" || senderEmail == "" || senderName == "" {
		log.Warn("Email service not configured; certificate notifications disabled")
		return nil
	}

	log.Info("Email service initialized", zap.String("sender", senderEmail))
	return &BrevoService{
		APIKey:        apiKey,
		SenderEmail:   senderEmail,
		SenderName:    senderName,
		VerifyBaseURL: strings.TrimRight(verifyBaseURL, "/"),
		endpoint:      brevoEndpoint,
		client:        &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// CertificateIssued tells a student their certificate is ready.
func (s *BrevoService) CertificateIssued(ctx context.Context, studentName, email, courseName, number string) error {
	if s == nil {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Congratulations, %s!</h1>", html.EscapeString(studentName))
	fmt.Fprintf(&b, "<p>Your certificate for <b>%s</b> has been issued.</p>", html.EscapeString(courseName))
	fmt.Fprintf(&b, "<p>Certificate number: <b>%s</b></p>", html.EscapeString(number))
	if s.VerifyBaseURL != "" {
		link := s.VerifyBaseURL + "?code=" + url.QueryEscape(number)
		fmt.Fprintf(&b, "<p><a href='%s'>Verify your certificate</a></p>", html.EscapeString(link))
	}

	return s.send(ctx, email, studentName, "Your certificate is ready", b.String())
}

func (s *BrevoService) send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	at := strings.Index(toEmail, "@")
	if at <= 0 {
		return fmt.Errorf("invalid recipient email: %s", toEmail)
	}

	recipientName := toName
	if recipientName == "" {
		recipientName = toEmail[:at]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": s.SenderName, "email": s.SenderEmail},
		To:          []map[string]string{{"email": toEmail, "name": recipientName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", s.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	s.log.Debug("Email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}
