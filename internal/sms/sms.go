package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/nasimair/flightops/config"
)

// Sender delivers one message to one phone number. Implementations must
// respect ctx so a stuck provider cannot hold a fan-out open.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// FromConfig picks the gateway client when a URL is configured, otherwise a
// log-only sender for local runs.
func FromConfig(cfg config.SMSConfig) Sender {
	if cfg.GatewayURL == "" {
		return NewLogSender()
	}
	return NewGatewaySender(cfg)
}

type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, phone, message string) error {
	log.Printf("sms to %s: %s", phone, message)
	return nil
}

// GatewaySender posts messages to an HTTP SMS gateway.
type GatewaySender struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGatewaySender(cfg config.SMSConfig) *GatewaySender {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GatewaySender{
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

type gatewayMessage struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *GatewaySender) Send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(gatewayMessage{To: phone, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*GatewaySender)(nil)
)
