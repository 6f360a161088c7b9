package notify

import "time"

type Config struct {
	Timeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM"`
	}
	SMS struct {
		URL        string `envconfig:"SMS_API_URL" default:"https://api.twilio.com/2010-04-01"`
		AccountSID string `envconfig:"SMS_ACCOUNT_SID"`
		AuthToken  string `envconfig:"SMS_AUTH_TOKEN"`
		From       string `envconfig:"SMS_FROM"`
	}
	Webhook struct {
		URL            string `envconfig:"ORDER_WEBHOOK_URL"`
		FulfillmentURL string `envconfig:"FULFILLMENT_WEBHOOK_URL"`
	}
	Slack struct {
		Token   string `envconfig:"SLACK_BOT_TOKEN"`
		Channel string `envconfig:"SLACK_CHANNEL"`
	}
}

// Channels builds every channel whose credentials are configured.
func (c Config) Channels() []Channel {
	var out []Channel
	if c.SMTP.Username != "" && c.SMTP.Password != "" {
		out = append(out, NewEmail(c.SMTP.Host, c.SMTP.Port, c.SMTP.Username, c.SMTP.Password, c.SMTP.From))
	}
	if c.SMS.AccountSID != "" && c.SMS.AuthToken != "" {
		out = append(out, NewSMS(c.SMS.URL, c.SMS.AccountSID, c.SMS.AuthToken, c.SMS.From, nil))
	}
	if c.Webhook.URL != "" {
		out = append(out, NewWebhook("webhook", c.Webhook.URL, nil))
	}
	if c.Slack.Token != "" && c.Slack.Channel != "" {
		out = append(out, NewSlack(c.Slack.Token, c.Slack.Channel))
	}
	return out
}
