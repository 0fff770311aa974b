package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"profsafe-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

type pushPayload struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	AlertID string `json:"alertId,omitempty"`
	Room    string `json:"room,omitempty"`
}

// WebPushChannel notifies every registered dashboard browser.
type WebPushChannel struct {
	db      *gorm.DB
	options *webpush.Options
	sender  NotificationSender
}

// NewWebPushChannel creates the browser push channel.
func NewWebPushChannel(db *gorm.DB, options *webpush.Options) *WebPushChannel {
	return &WebPushChannel{db: db, options: options, sender: &WebPushSender{}}
}

// SetSender replaces the push sender.
func (c *WebPushChannel) SetSender(sender NotificationSender) {
	if sender != nil {
		c.sender = sender
	}
}

func (c *WebPushChannel) Name() string { return "webpush" }

func (c *WebPushChannel) Enabled() bool {
	return c.db != nil && c.options != nil &&
		c.options.VAPIDPublicKey != "" && c.options.VAPIDPrivateKey != ""
}

// Send pushes the message to all subscriptions. Expired subscriptions are
// deleted. The returned error joins every failed delivery.
func (c *WebPushChannel) Send(ctx context.Context, msg Message) error {
	var subscriptions []model.PushSubscription
	if err := c.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:   "PROF-SAFE 24",
		Body:    msg.Text(),
		AlertID: msg.AlertID,
		Room:    msg.Room,
	})
	if err != nil {
		return err
	}

	log.Printf("Sending %d push notifications for alert %s", len(subscriptions), msg.AlertID)

	var errs []error
	for _, sub := range subscriptions {
		if err := c.sendOne(ctx, sub, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *WebPushChannel) sendOne(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := c.sender.Send(ctx, payload, wpSub, c.options)
	if err != nil {
		return fmt.Errorf("push to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := c.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return nil
	case resp.StatusCode >= 300:
		return fmt.Errorf("push to %s: HTTP %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}
