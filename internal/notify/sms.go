package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
)

// SMS posts to a Twilio-compatible messages endpoint.
type SMS struct {
	endpoint   string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
}

func NewSMS(baseURL, accountSID, authToken, from string, client *http.Client) *SMS {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SMS{
		endpoint:   strings.TrimRight(baseURL, "/") + "/Accounts/" + accountSID + "/Messages.json",
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     client,
	}
}

func (s *SMS) Name() string { return "sms" }

func (s *SMS) Send(ctx context.Context, n model.Notification) error {
	if n.Phone == "" {
		return ErrNoRecipient
	}
	form := url.Values{}
	form.Set("To", n.Phone)
	form.Set("From", s.from)
	form.Set("Body", n.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}
