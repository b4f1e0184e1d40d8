// Package transport delivers opaque ciphertext envelopes between devices and
// pushes inbound envelopes to a registered handler over a WebSocket
// subscription.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sealwire/internal/domain"
)

// Client is the HTTP+WebSocket client for the transport collaborator.
// Deliveries go over plain HTTP; the receive side is a persistent WebSocket
// subscription for this device's mailbox.
type Client struct {
	base string
	http *http.Client
	log  *logrus.Entry

	mu      sync.Mutex
	handler func(domain.Envelope)
}

// New returns a transport client for the given base URL.
func New(base string, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: base,
		http: httpClient,
		log:  log.WithField("component", "transport"),
	}
}

// Deliver hands one envelope to the named recipient device.
func (c *Client) Deliver(ctx context.Context, env domain.Envelope) error {
	path := "/envelopes/" + url.PathEscape(string(env.RecipientDID)) +
		"/" + url.PathEscape(string(env.RecipientDeviceID))
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(env); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("transport deliver %s: %s", path, resp.Status)
	}
	return nil
}

// OnReceive registers the handler invoked for each inbound envelope.
func (c *Client) OnReceive(handler func(domain.Envelope)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Listen subscribes to this device's mailbox and dispatches every inbound
// envelope to the registered handler until ctx is cancelled or the
// connection drops.
func (c *Client) Listen(ctx context.Context, did domain.DID, device domain.DeviceID) error {
	wsBase := strings.Replace(c.base, "http", "ws", 1)
	u := wsBase + "/subscribe/" + url.PathEscape(string(did)) + "/" + url.PathEscape(string(device))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("transport subscribe: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.WithError(err).Warn("dropping malformed envelope")
			continue
		}
		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(env)
		}
	}
}

// Compile-time assertion that Client implements domain.Transport.
var _ domain.Transport = (*Client)(nil)
