package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/validator"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
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

func receive(t *testing.T, sub *nats.Subscription) (string, Event) {
	t.Helper()
	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	return msg.Subject, ev
}

func TestPublisher_Lifecycle(t *testing.T) {
	server := startTestNATSServer(t)

	sub, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	s, err := sub.SubscribeSync("debrief.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	p, err := Connect(server.ClientURL(), "debrief", nil)
	require.NoError(t, err)
	defer p.Close()

	sess := debrief.Session{ID: "b4c1", IncidentType: "cardiac_arrest", StartedAt: time.Now()}
	ctx := context.Background()

	require.NoError(t, p.Started(ctx, sess))
	subject, ev := receive(t, s)
	assert.Equal(t, "debrief.b4c1.started", subject)
	assert.Equal(t, KindStarted, ev.Kind)
	assert.Equal(t, "cardiac_arrest", ev.IncidentType)
	assert.Empty(t, ev.Verdicts)

	report := &debrief.Report{Sections: map[string]debrief.Section{
		debrief.SectionCritical: {Result: validator.VerdictNo},
	}}
	require.NoError(t, p.Completed(ctx, sess, report))
	subject, ev = receive(t, s)
	assert.Equal(t, "debrief.b4c1.completed", subject)
	assert.Equal(t, validator.VerdictNo, ev.Verdicts[debrief.SectionCritical])

	require.NoError(t, p.Failed(ctx, sess, errors.New("validator address: validator call timed out")))
	subject, ev = receive(t, s)
	assert.Equal(t, "debrief.b4c1.failed", subject)
	assert.Equal(t, "b4c1", ev.SessionID)
	assert.Contains(t, ev.Error, "timed out")
}

func TestPublisher_Subject(t *testing.T) {
	p := NewPublisher(nil, ".dispatch.qa.", nil)
	assert.Equal(t, "dispatch.qa.s1.failed", p.Subject("s1", KindFailed))

	p = NewPublisher(nil, "", nil)
	assert.Equal(t, "debrief.s1.started", p.Subject("s1", KindStarted))
}

func TestPublisher_ClosedConnection(t *testing.T) {
	server := startTestNATSServer(t)

	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	nc.Close()

	p := NewPublisher(nc, "debrief", nil)
	err = p.Started(context.Background(), debrief.Session{ID: "s1"})
	assert.ErrorContains(t, err, "publish started event")
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "debrief", nil)
	assert.ErrorContains(t, err, "connect to NATS")
}
