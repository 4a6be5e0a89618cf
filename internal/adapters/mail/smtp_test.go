package mail

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// relay is a scripted SMTP server on one end of a pipe
type relay struct {
	mailReply string
	data      chan string
}

func (r *relay) serve(conn net.Conn) {
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	reply := func(s string) {
		_, _ = rw.WriteString(s + "\r\n")
		_ = rw.Flush()
	}

	reply("220 relay.example.com ESMTP")
	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			reply("250-relay.example.com")
			reply("250 8BITMIME")
		case strings.HasPrefix(cmd, "HELO"):
			reply("250 relay.example.com")
		case strings.HasPrefix(cmd, "MAIL"):
			if r.mailReply != "" {
				reply(r.mailReply)
				continue
			}
			reply("250 OK")
		case strings.HasPrefix(cmd, "RCPT"):
			reply("250 OK")
		case cmd == "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			var lines []string
			for {
				l, err := rw.ReadString('\n')
				if err != nil {
					return
				}
				l = strings.TrimRight(l, "\r\n")
				if l == "." {
					break
				}
				lines = append(lines, l)
			}
			r.data <- strings.Join(lines, "\r\n")
			reply("250 OK queued")
		case cmd == "QUIT":
			reply("221 Bye")
			return
		default:
			reply("502 Command not implemented")
		}
	}
}

func newTestMailer(t *testing.T, r *relay) (*SMTPMailer, *string) {
	t.Helper()
	m := NewSMTPMailer("smtp.example.com", 2525, "", "", "sabha@example.com")
	require.NotNil(t, m)

	var dialed string
	m.dial = func(_ context.Context, _, addr string) (net.Conn, error) {
		dialed = addr
		client, server := net.Pipe()
		go r.serve(server)
		return client, nil
	}
	return m, &dialed
}

func TestNewSMTPMailerDisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPMailer("", 587, "", "", "from@example.com"))
}

func TestSend(t *testing.T) {
	r := &relay{data: make(chan string, 1)}
	m, dialed := newTestMailer(t, r)

	require.NoError(t, m.Send(context.Background(), "a@example.com", "Your OTP", "Code: 123456"))
	assert.Equal(t, "smtp.example.com:2525", *dialed)

	msg := <-r.data
	assert.True(t, strings.HasPrefix(msg, "From: sabha@example.com\r\n"))
	assert.Contains(t, msg, "To: a@example.com\r\n")
	assert.Contains(t, msg, "Subject: Your OTP\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nCode: 123456"))
}

func TestSendRejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 25, "", "", "sabha@example.com")
	m.dial = func(context.Context, string, string) (net.Conn, error) {
		t.Fatal("dial must not be called")
		return nil, nil
	}

	assert.Error(t, m.Send(context.Background(), "a@example.com\r\nBcc: x@example.com", "OTP", "body"))
}

func TestSendReportsRelayRejection(t *testing.T) {
	r := &relay{mailReply: "554 5.7.1 Relay access denied", data: make(chan string, 1)}
	m, _ := newTestMailer(t, r)

	err := m.Send(context.Background(), "a@example.com", "OTP", "body")
	var tpErr *textproto.Error
	require.ErrorAs(t, err, &tpErr)
	assert.Equal(t, 554, tpErr.Code)
}

func TestSendGivesUpOnStalledRelay(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 25, "", "", "sabha@example.com")
	m.dial = func(context.Context, string, string) (net.Conn, error) {
		// The relay accepts the connection and never greets
		client, server := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Send(ctx, "a@example.com", "OTP", "body")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendHonorsCancellation(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", 25, "", "", "sabha@example.com")
	m.dial = func(context.Context, string, string) (net.Conn, error) {
		client, server := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		return client, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := m.Send(ctx, "a@example.com", "OTP", "body")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
