package events

import (
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1, // Random port
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func connect(t *testing.T, server *natsserver.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestPublisher_ElementRouted(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "mep.coordination")

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("mep.coordination.element.routed", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = pub.ElementRouted(ElementRouted{
		Kind:    "pipe",
		System:  "chilled_water",
		Level:   "L3",
		Points:  4,
		LengthM: 12.5,
		Pattern: "double_45",
	})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var ev ElementRouted
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "pipe", ev.Kind)
		assert.Equal(t, "chilled_water", ev.System)
		assert.Equal(t, 4, ev.Points)
		assert.Equal(t, "double_45", ev.Pattern)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for element.routed event")
	}
}

func TestPublisher_CollisionsDetected(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "mep.coordination")

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("mep.coordination.collision.detected", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = pub.CollisionsDetected(CollisionsDetected{
		Level:   "L1",
		Pairs:   3,
		Classes: map[string]int{"mep": 2, "structure": 1},
	})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var ev CollisionsDetected
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "L1", ev.Level)
		assert.Equal(t, 3, ev.Pairs)
		assert.Equal(t, 2, ev.Classes["mep"])
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for collision.detected event")
	}
}

func TestPublisher_ElementAdjusted(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "mep.coordination")

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("mep.coordination.element.adjusted", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = pub.ElementAdjusted(ElementAdjusted{
		ElementID: "duct_17",
		Type:      "vertical_translation",
		Reason:    "lower priority than pipe_3",
	})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var ev ElementAdjusted
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "duct_17", ev.ElementID)
		assert.Equal(t, "vertical_translation", ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for element.adjusted event")
	}
}

func TestPublisher_HangersCreated(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "mep.coordination")

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("mep.coordination.hanger.created", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = pub.HangersCreated(HangersCreated{
		ElementIDs: []string{"pipe_1", "pipe_2"},
		SpaceID:    "space_abc",
		Count:      6,
		Integrated: true,
	})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var ev HangersCreated
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, []string{"pipe_1", "pipe_2"}, ev.ElementIDs)
		assert.Equal(t, 6, ev.Count)
		assert.True(t, ev.Integrated)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for hanger.created event")
	}
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "")
	assert.Equal(t, DefaultSubjectPrefix, pub.prefix)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(DefaultSubjectPrefix+".element.routed", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, pub.ElementRouted(ElementRouted{Kind: "duct"}))

	select {
	case <-ch:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event on default prefix")
	}
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var pub *Publisher

	assert.NoError(t, pub.ElementRouted(ElementRouted{Kind: "pipe"}))
	assert.NoError(t, pub.CollisionsDetected(CollisionsDetected{Level: "L1"}))
	assert.NoError(t, pub.ElementAdjusted(ElementAdjusted{ElementID: "x"}))
	assert.NoError(t, pub.HangersCreated(HangersCreated{Count: 1}))
}

func TestPublisher_PublishErrorOnClosedConnection(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)

	pub := NewPublisher(nc, "mep.coordination")

	nc.Close()

	err = pub.ElementAdjusted(ElementAdjusted{ElementID: "duct_1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "publish element.adjusted event")
}

func TestPublisher_PreservesExplicitTimestamp(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	pub := NewPublisher(nc, "mep.coordination")

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("mep.coordination.element.adjusted", ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.ElementAdjusted(ElementAdjusted{ElementID: "x", Timestamp: stamp}))

	select {
	case msg := <-ch:
		var ev ElementAdjusted
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.True(t, stamp.Equal(ev.Timestamp))
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}
