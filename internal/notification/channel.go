package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"profsafe-backend/config"
)

// Channel delivers a Message to one external service.
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// NewHTTPClient builds the outbound client shared by the HTTP channels. An
// invalid proxy URL is logged and ignored.
func NewHTTPClient(proxy string) *http.Client {
	var transport http.RoundTripper = &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil || proxyURL.Host == "" {
			log.Printf("Warning: Invalid proxy URL %q: %v. Notifications will not use a proxy.", proxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return &http.Client{Transport: transport, Timeout: 15 * time.Second}
}

// postForm sends an url-encoded form and reports non-accepted status codes as
// "HTTP <code>".
func postForm(ctx context.Context, client *http.Client, endpoint string, form url.Values, setAuth func(*http.Request), accept ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if setAuth != nil {
		setAuth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	for _, code := range accept {
		if resp.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("HTTP %d", resp.StatusCode)
}

// TelegramChannel posts alerts to a bot chat.
type TelegramChannel struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramChannel creates a Telegram bot channel. A nil client uses a
// default one.
func NewTelegramChannel(cfg config.TelegramConfig, client *http.Client) *TelegramChannel {
	if client == nil {
		client = defaultClient()
	}
	return &TelegramChannel{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		client:  client,
	}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Enabled() bool {
	return c.token != "" && c.chatID != ""
}

// Send calls the bot sendMessage method.
func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.token)
	form := url.Values{
		"chat_id": {c.chatID},
		"text":    {msg.Text()},
	}
	return postForm(ctx, c.client, endpoint, form, nil, http.StatusOK)
}

// SMSChannel sends alerts as text messages through the Twilio REST API.
type SMSChannel struct {
	sid     string
	token   string
	from    string
	to      string
	apiBase string
	client  *http.Client
}

// NewSMSChannel creates a Twilio SMS channel. A nil client uses a default one.
func NewSMSChannel(cfg config.SMSConfig, client *http.Client) *SMSChannel {
	if client == nil {
		client = defaultClient()
	}
	return &SMSChannel{
		sid:     cfg.AccountSID,
		token:   cfg.AuthToken,
		from:    cfg.From,
		to:      cfg.To,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		client:  client,
	}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Enabled() bool {
	return c.sid != "" && c.token != "" && c.from != "" && c.to != ""
}

// Send creates one Message resource.
func (c *SMSChannel) Send(ctx context.Context, msg Message) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.apiBase, c.sid)
	form := url.Values{
		"From": {c.from},
		"To":   {c.to},
		"Body": {msg.Text()},
	}
	auth := func(req *http.Request) { req.SetBasicAuth(c.sid, c.token) }
	return postForm(ctx, c.client, endpoint, form, auth, http.StatusOK, http.StatusCreated)
}
