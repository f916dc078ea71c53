package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// ErrSMSRejected is returned when the SMS gateway answers without success.
var ErrSMSRejected = errors.New("sms gateway rejected the message")

// SMSClient sends text messages through an HTTP SMS gateway.
type SMSClient struct {
	url           string
	token         string
	sender        string
	countryPrefix string
	timeout       time.Duration
	client        *fasthttp.Client
}

// NewSMSClient creates an SMS client. prefix is the country calling code
// local numbers are expanded with.
func NewSMSClient(url, token, sender, prefix string, timeout time.Duration) *SMSClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSClient{
		url:           url,
		token:         token,
		sender:        sender,
		countryPrefix: prefix,
		timeout:       timeout,
		client: &fasthttp.Client{
			Name:         "property-booking",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
	}
}

type smsRequest struct {
	Number         string `json:"number"`
	SenderName     string `json:"senderName"`
	SendAtOption   string `json:"sendAtOption"`
	MessageBody    string `json:"messageBody"`
	AllowDuplicate bool   `json:"allow_duplicate"`
}

type smsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Message struct {
			ID json.Number `json:"id"`
		} `json:"message"`
	} `json:"data"`
}

// Send delivers body to phone and returns the gateway message id.
func (c *SMSClient) Send(ctx context.Context, phone, body string) (string, error) {
	number := NormalizePhone(c.countryPrefix, phone)
	if number == "" {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	payload, err := json.Marshal(smsRequest{
		Number:         number,
		SenderName:     c.sender,
		SendAtOption:   "Now",
		MessageBody:    body,
		AllowDuplicate: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal sms request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrSMSRejected, code)
	}

	var out smsResponse
	dec := json.NewDecoder(strings.NewReader(string(resp.Body())))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}
	if out.Status != "Success" {
		return "", fmt.Errorf("%w: status %q", ErrSMSRejected, out.Status)
	}
	return out.Data.Message.ID.String(), nil
}

// NormalizePhone turns a local or international number into the digits-only
// form the gateway expects, e.g. "0501234567" -> "966501234567".
// Returns "" when nothing dialable is left.
func NormalizePhone(prefix, phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	digits = strings.TrimPrefix(digits, "00")
	if digits == "" {
		return ""
	}
	if prefix == "" || strings.HasPrefix(digits, prefix) {
		return digits
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return ""
	}
	return prefix + digits
}
