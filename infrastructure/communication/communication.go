package communication

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"

	"axiapac.com/punchclock/logging"
)

type Slack struct {
	client  *slack.Client
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
	// APIURL overrides the Slack endpoint, mostly for tests.
	APIURL string
}

func ConnectSlack() *Slack {
	token := os.Getenv("SLACK_BOT_TOKEN")
	infoCh := os.Getenv("SLACK_INFO_CHANNEL")
	errorCh := os.Getenv("SLACK_ERROR_CHANNEL")

	return NewSlack(token, SlackOption{InfoChannelID: infoCh, ErrorChannelID: errorCh})
}

func NewSlack(token string, options SlackOption) *Slack {
	var opts []slack.Option
	if options.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(options.APIURL))
	}
	client := slack.New(token, opts...)
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(ctx context.Context, channelID, message string) error {
	if channelID == "" {
		return nil
	}
	_, _, err := s.client.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (this *Slack) Info(ctx context.Context, message string) error {
	return this.postMessage(ctx, this.options.InfoChannelID, message)
}

func (this *Slack) Error(ctx context.Context, message string) error {
	return this.postMessage(ctx, this.options.ErrorChannelID, message)
}

// PunchFailed reports network failures on the error channel and policy
// rejections on the info channel.
func (this *Slack) PunchFailed(ctx context.Context, employeeID string, kind string, err error) {
	message := fmt.Sprintf("punch %s for employee %s: %v", kind, employeeID, err)

	var postErr error
	if kind == "network" {
		postErr = this.Error(ctx, message)
	} else {
		postErr = this.Info(ctx, message)
	}
	if postErr != nil {
		logging.Service(ctx, nil, "slack", "punch_failed").Warn("notification not delivered", "error", postErr)
	}
}
