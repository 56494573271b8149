package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/events"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - issue created
	ColorGreen  = 65280    // #00FF00 - moved to done
	ColorOrange = 16753920 // #FFA500 - other status change

	Username = "FlowTrack"
)

// WebhookNotifier posts issue creation and status changes to the project's
// Discord and Slack webhooks. Other event types are ignored.
type WebhookNotifier struct {
	client *http.Client
}

func NewWebhookNotifier(client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookNotifier{client: client}
}

func (n *WebhookNotifier) Publish(ctx context.Context, event events.Event) error {
	if event.Issue == nil {
		return nil
	}
	if event.Type != events.IssueCreated && event.Type != events.IssueStatusChanged {
		return nil
	}

	var errs []error
	if event.Project.DiscordWebhook != "" {
		if err := n.send(ctx, event.Project.DiscordWebhook, discordPayload(event)); err != nil {
			errs = append(errs, fmt.Errorf("discord: %w", err))
		}
	}
	if event.Project.SlackWebhook != "" {
		if err := n.send(ctx, event.Project.SlackWebhook, slackPayload(event)); err != nil {
			errs = append(errs, fmt.Errorf("slack: %w", err))
		}
	}

	return errors.Join(errs...)
}

func discordPayload(event events.Event) DiscordWebhookRequest {
	issue := event.Issue
	embed := DiscordEmbed{
		Fields: []DiscordWebhookField{
			{Name: "Issue", Value: issue.Key, Inline: true},
			{Name: "Status", Value: statusLabel(issue.Status), Inline: true},
		},
		Footer:    &DiscordFooter{Text: fmt.Sprintf("Project: %s (%s)", event.Project.Name, event.Project.Key)},
		Timestamp: event.OccurredAt.Format(time.RFC3339),
	}

	if event.Type == events.IssueCreated {
		embed.Title = "New issue " + issue.Key
		embed.Description = fmt.Sprintf("**%s** was created.", issue.Title)
		embed.Color = ColorBlue
		if issue.Priority != "" {
			embed.Fields = append(embed.Fields, DiscordWebhookField{Name: "Priority", Value: string(issue.Priority), Inline: true})
		}
	} else {
		embed.Title = fmt.Sprintf("%s moved to %s", issue.Key, statusLabel(issue.Status))
		embed.Description = fmt.Sprintf("**%s**: %s -> %s", issue.Title, statusLabel(issue.PreviousStatus), statusLabel(issue.Status))
		embed.Color = statusColor(issue.Status)
	}

	return DiscordWebhookRequest{Username: Username, Embeds: []DiscordEmbed{embed}}
}

func slackPayload(event events.Event) SlackWebhookRequest {
	issue := event.Issue
	attachment := SlackAttachment{
		Fields: []SlackField{
			{Title: "Issue", Value: issue.Key, Short: true},
			{Title: "Status", Value: statusLabel(issue.Status), Short: true},
		},
		Footer:    fmt.Sprintf("Project: %s", event.Project.Name),
		Timestamp: event.OccurredAt.Unix(),
	}

	text := ""
	if event.Type == events.IssueCreated {
		text = fmt.Sprintf("*New issue %s*", issue.Key)
		attachment.Color = "#3498DB"
		attachment.Title = issue.Title
	} else {
		text = fmt.Sprintf("*%s moved to %s*", issue.Key, statusLabel(issue.Status))
		attachment.Color = "warning"
		if issue.Status == "done" {
			attachment.Color = "good"
		}
		attachment.Title = issue.Title
		attachment.Text = fmt.Sprintf("%s -> %s", statusLabel(issue.PreviousStatus), statusLabel(issue.Status))
	}

	return SlackWebhookRequest{Username: Username, Text: text, Attachments: []SlackAttachment{attachment}}
}

func statusLabel[S ~string](status S) string {
	if status == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(status), "_", " ")
}

func statusColor[S ~string](status S) int {
	if status == "done" {
		return ColorGreen
	}
	return ColorOrange
}

func (n *WebhookNotifier) send(ctx context.Context, webhookURL string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
