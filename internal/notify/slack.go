package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts to the pharmacy staff channel.
type Slack struct {
	client  slackPoster
	channel string
}

func NewSlack(token, channel string) *Slack {
	return &Slack{client: slack.New(token), channel: channel}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n model.Notification) error {
	header := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*%s* for patient `%s`", n.Kind, n.PatientID), false, false)
	detail := slack.NewTextBlockObject("mrkdwn", n.Message, false, false)
	blocks := []slack.Block{
		slack.NewSectionBlock(header, nil, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(detail, nil, nil),
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(n.Message, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	return nil
}
