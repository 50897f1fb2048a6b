// Package push receives inbound push messages over the messaging transport
// and decides whether to surface a local notification, consulting the
// preference store once per message.
package push

import (
	"context"
	"encoding/json"

	"ember/internal/models"
	"ember/internal/observability"

	"github.com/gorilla/websocket"
)

// Message is one inbound push payload.
type Message struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Presenter surfaces a local notification to the user.
type Presenter func(Message)

// PreferenceReader is the point-in-time preference read performed per
// message, not a live subscription.
type PreferenceReader interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
}

// Receiver consumes the push transport until it fails or ctx ends. It does
// not reconnect; restarting is the caller's decision.
type Receiver struct {
	url     string
	prefs   PreferenceReader
	present Presenter
	log     *observability.Logger
}

// NewReceiver creates a Receiver for the given websocket endpoint.
func NewReceiver(url string, prefs PreferenceReader, present Presenter) *Receiver {
	return &Receiver{
		url:     url,
		prefs:   prefs,
		present: present,
		log:     observability.Component("push"),
	}
}

// Run dials the transport and handles messages until ctx ends (returns nil)
// or the transport fails (returns a transport error).
func (r *Receiver) Run(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return models.NewTransportError("push transport dial failed", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()
	r.log.Info("push transport connected", "url", r.url)

	// Unblock ReadMessage when the scope ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("push transport detached")
				return nil
			}
			return models.NewTransportError("push transport closed", err)
		}
		r.handle(ctx, data)
	}
}

func (r *Receiver) handle(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.PushMessages.WithLabelValues("malformed").Inc()
		r.log.Warn("dropping malformed push message", "error", err)
		return
	}

	enabled, err := r.prefs.NotificationsEnabled(ctx)
	if err != nil {
		// The store default applies when the flag cannot be read.
		r.log.Warn("preference read failed", "error", err)
		enabled = true
	}
	if !enabled {
		observability.PushMessages.WithLabelValues("disabled").Inc()
		r.log.Info("push message dropped, notifications disabled", "id", msg.ID)
		return
	}

	observability.PushMessages.WithLabelValues("shown").Inc()
	r.present(msg)
}
