// Package notify delivers user notifications: an in-app record plus push
// (through Kafka), SMS and email.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/property-booking/internal/model"
)

const defaultDeliveryTimeout = 30 * time.Second

// Store persists notifications and resolves user contacts.
type Store interface {
	Insert(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	GetContact(ctx context.Context, userID uuid.UUID) (*model.Contact, error)
}

// PushSender queues a push notification.
type PushSender interface {
	PublishPush(ctx context.Context, msg model.PushMessage) error
}

// SMSSender sends a text message.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) (string, error)
}

// MailSender sends an email.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Channels are the optional delivery channels of a Dispatcher. A nil
// channel is skipped.
type Channels struct {
	Push PushSender
	SMS  SMSSender
	Mail MailSender
}

// Dispatcher records notifications and fans them out to the external
// channels in the background.
type Dispatcher struct {
	store    Store
	channels Channels
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store Store, channels Channels, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}
	return &Dispatcher{store: store, channels: channels, timeout: timeout}
}

// Notify stores the in-app notification and starts external delivery.
// It never fails the caller: every error is logged.
func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, msg model.Message) {
	n := &model.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   msg.Type,
		Title:  msg.Title,
		Body:   msg.Body,
		Data:   msg.Data,
	}
	if err := d.store.Insert(ctx, n); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Str("type", string(msg.Type)).Msg("failed to store notification")
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		d.deliver(deliverCtx, userID, msg)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, userID uuid.UUID, msg model.Message) {
	contact, err := d.store.GetContact(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to load contact")
		return
	}
	if contact == nil {
		log.Debug().Str("user_id", userID.String()).Msg("no contact for user, external delivery skipped")
		return
	}

	if d.channels.Push != nil && contact.PushToken != "" {
		data := make(map[string]string, len(msg.Data)+1)
		for k, v := range msg.Data {
			data[k] = v
		}
		data["type"] = string(msg.Type)
		err := d.channels.Push.PublishPush(ctx, model.PushMessage{
			UserID: userID,
			Token:  contact.PushToken,
			Title:  msg.Title,
			Body:   msg.Body,
			Data:   data,
		})
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("push delivery failed")
		}
	}

	if d.channels.SMS != nil && msg.SMS != "" && contact.Phone != "" {
		if _, err := d.channels.SMS.Send(ctx, contact.Phone, msg.SMS); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("sms delivery failed")
		}
	}

	if d.channels.Mail != nil && msg.EmailSubject != "" && contact.Email != "" {
		body := msg.EmailBody
		if body == "" {
			body = msg.Body
		}
		if contact.Name != "" {
			body = "Hello " + contact.Name + ",\n\n" + body
		}
		if err := d.channels.Mail.Send(ctx, contact.Email, msg.EmailSubject, body); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("email delivery failed")
		}
	}
}

// List returns the latest in-app notifications of a user.
func (d *Dispatcher) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	return d.store.ListByUser(ctx, userID, limit)
}

// Wait blocks until background deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
