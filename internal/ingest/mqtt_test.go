package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeClient implements the calls the subscriber makes; anything else panics
// on the nil embedded interface.
type fakeClient struct {
	mqtt.Client
	connectErr   error
	subscribeErr error
	subscribed   chan mqtt.MessageHandler
	disconnected bool
}

func (c *fakeClient) Connect() mqtt.Token { return &fakeToken{err: c.connectErr} }

func (c *fakeClient) Subscribe(_ string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	if c.subscribeErr == nil {
		c.subscribed <- cb
	}
	return &fakeToken{err: c.subscribeErr}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "st-1", DeviceFromTopic("stations/st-1/detections"))
	assert.Equal(t, "", DeviceFromTopic("stations/st-1"))
	assert.Equal(t, "", DeviceFromTopic("other/st-1/detections"))
	assert.Equal(t, "", DeviceFromTopic("stations/st-1/status"))
}

func TestMQTTSubscriber_DeliversMessages(t *testing.T) {
	store := &mockStore{}
	stored := make(chan *model.Detection, 1)
	store.On("Create", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stored <- args.Get(1).(*model.Detection)
	})

	client := &fakeClient{subscribed: make(chan mqtt.MessageHandler, 1)}
	sub := NewMQTTSubscriber(client, "stations/+/detections", NewIngestor(store, "mqtt", zerolog.Nop()), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	handler := <-client.subscribed
	handler(client, &fakeMessage{topic: "stations/st-7/detections", payload: []byte(`{"category":"recycle","item":"can"}`)})

	d := <-stored
	assert.Equal(t, "st-7", d.DeviceID)
	assert.Equal(t, "recycle", d.Category)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, client.disconnected)
}

func TestMQTTSubscriber_ConnectError(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("refused")}
	sub := NewMQTTSubscriber(client, "stations/+/detections", NewIngestor(&mockStore{}, "mqtt", zerolog.Nop()), zerolog.Nop())

	err := sub.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.False(t, client.disconnected)
}

func TestMQTTSubscriber_SubscribeError(t *testing.T) {
	client := &fakeClient{subscribeErr: errors.New("not authorized")}
	sub := NewMQTTSubscriber(client, "stations/+/detections", NewIngestor(&mockStore{}, "mqtt", zerolog.Nop()), zerolog.Nop())

	err := sub.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
	assert.True(t, client.disconnected)
}
