package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/postmark"
)

// PostmarkDeliverer sends an email copy of each notification through Postmark.
type PostmarkDeliverer struct {
	client    *postmark.Client
	sender    string
	recipient string
	tag       string
}

// PostmarkOption configures a PostmarkDeliverer.
type PostmarkOption func(*PostmarkDeliverer)

// WithPostmarkClient replaces the Postmark client, e.g. to point it at a test server.
func WithPostmarkClient(client *postmark.Client) PostmarkOption {
	return func(d *PostmarkDeliverer) {
		if client != nil {
			d.client = client
		}
	}
}

// WithPostmarkTag sets the Postmark message tag.
func WithPostmarkTag(tag string) PostmarkOption {
	return func(d *PostmarkDeliverer) {
		d.tag = tag
	}
}

// NewPostmarkDeliverer creates a Postmark-backed deliverer.
func NewPostmarkDeliverer(cfg Config, opts ...PostmarkOption) (*PostmarkDeliverer, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if cfg.RecipientEmail == "" {
		return nil, fmt.Errorf("%w: RecipientEmail is required", ErrInvalidConfig)
	}

	d := &PostmarkDeliverer{
		client:    postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender:    cfg.SenderEmail,
		recipient: cfg.RecipientEmail,
		tag:       "task-notification",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *PostmarkDeliverer) Deliver(ctx context.Context, notif Notification) error {
	resp, err := d.client.SendEmail(ctx, postmark.Email{
		From:     d.sender,
		To:       d.recipient,
		Subject:  notif.Title,
		Tag:      d.tag,
		TextBody: textBody(notif),
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrDeliveryFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

func textBody(notif Notification) string {
	var b strings.Builder
	b.WriteString(notif.Body)

	if len(notif.Data) > 0 {
		keys := make([]string, 0, len(notif.Data))
		for k := range notif.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %v", k, notif.Data[k])
		}
	}
	return b.String()
}
