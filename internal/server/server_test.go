package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/encode"
	"github.com/KilimcininKorOglu/obacodec/internal/filter"
	"github.com/KilimcininKorOglu/obacodec/internal/grammar"
	"github.com/KilimcininKorOglu/obacodec/internal/ldap"
	"github.com/KilimcininKorOglu/obacodec/internal/logging"
	"github.com/KilimcininKorOglu/obacodec/internal/stream"
)

type runningServer struct {
	srv    *Server
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, cfg Config, logger logging.Logger) *runningServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	rs := &runningServer{srv: New(cfg, logger), done: make(chan error, 1)}
	var ctx context.Context
	ctx, rs.cancel = context.WithCancel(context.Background())
	go func() { rs.done <- rs.srv.Serve(ctx, l) }()
	t.Cleanup(rs.stop)
	return rs
}

func (rs *runningServer) stop() {
	rs.cancel()
	<-rs.done
	rs.done <- nil
}

type client struct {
	t      *testing.T
	conn   net.Conn
	reader *stream.Reader[ldap.LDAPMessage]
}

func dial(t *testing.T, rs *runningServer) *client {
	t.Helper()
	conn, err := net.Dial("tcp", rs.srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, reader: stream.NewReader(conn, ldap.MessageGrammar)}
}

func (c *client) send(id int, op encode.Marshaler) {
	c.t.Helper()
	msg, err := ldap.NewMessage(id, op)
	if err != nil {
		c.t.Fatal(err)
	}
	data, err := msg.Encode()
	if err != nil {
		c.t.Fatal(err)
	}
	if _, err := c.conn.Write(data); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *client) response() (*ldap.LDAPMessage, *ldap.Response) {
	c.t.Helper()
	msg, err := c.reader.Next()
	if err != nil {
		c.t.Fatalf("read response: %v", err)
	}
	resp, err := ldap.ParseResponse(msg.Operation)
	if err != nil {
		c.t.Fatalf("parse response: %v", err)
	}
	return msg, resp
}

func (c *client) expectClosed() {
	c.t.Helper()
	if _, err := c.reader.Next(); !errors.Is(err, io.EOF) {
		c.t.Errorf("expected connection close, got %v", err)
	}
}

func TestServer_RequestsAnsweredUnwilling(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	tests := []struct {
		op   encode.Marshaler
		want ldap.OperationType
	}{
		{&ldap.BindRequest{Version: 3, Name: "cn=admin,dc=example,dc=com", SimplePassword: []byte("secret")}, ldap.ApplicationBindResponse},
		{&ldap.DeleteRequest{DN: "cn=old,dc=example,dc=com"}, ldap.ApplicationDelResponse},
		{&ldap.CompareRequest{DN: "cn=a", Attribute: "cn", Value: []byte("a")}, ldap.ApplicationCompareResponse},
		{&ldap.AddRequest{Entry: "cn=a", Attributes: []ldap.Attribute{{Type: "cn", Values: [][]byte{[]byte("a")}}}}, ldap.ApplicationAddResponse},
		{&ldap.SearchRequest{BaseObject: "dc=example,dc=com", Scope: ldap.ScopeWholeSubtree, Filter: filter.NewPresentFilter("objectClass")}, ldap.ApplicationSearchResultDone},
	}

	for i, tt := range tests {
		c.send(i+1, tt.op)
		msg, resp := c.response()
		if msg.MessageID != i+1 {
			t.Errorf("message ID = %d, want %d", msg.MessageID, i+1)
		}
		if resp.Type != tt.want || resp.ResultCode != ldap.ResultUnwillingToPerform {
			t.Errorf("response = %+v", resp)
		}
	}
}

func TestServer_FragmentedAndPipelined(t *testing.T) {
	rs := startServer(t, Config{ReadBufferSize: 3}, nil)
	c := dial(t, rs)

	var data []byte
	for id := 1; id <= 3; id++ {
		msg, _ := ldap.NewMessage(id, &ldap.DeleteRequest{DN: "cn=x"})
		b, _ := msg.Encode()
		data = append(data, b...)
	}
	for i := range data {
		if _, err := c.conn.Write(data[i : i+1]); err != nil {
			t.Fatal(err)
		}
	}

	for id := 1; id <= 3; id++ {
		msg, resp := c.response()
		if msg.MessageID != id || resp.Type != ldap.ApplicationDelResponse {
			t.Errorf("response %d = %d %+v", id, msg.MessageID, resp)
		}
	}
}

func TestServer_UnbindCloses(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	c.send(1, &ldap.UnbindRequest{})
	c.expectClosed()
}

func TestServer_AbandonIgnored(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	c.send(1, &ldap.AbandonRequest{MessageID: 9})
	c.send(2, &ldap.DeleteRequest{DN: "cn=x"})

	msg, resp := c.response()
	if msg.MessageID != 2 || resp.Type != ldap.ApplicationDelResponse {
		t.Errorf("first response = %d %+v", msg.MessageID, resp)
	}
}

func TestServer_MalformedOperation(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	// Bind version 0 is outside 1..127.
	msg := &ldap.LDAPMessage{
		MessageID: 4,
		Operation: &ldap.RawOperation{
			Tag:         ldap.ApplicationBindRequest,
			Constructed: true,
			Data:        []byte{0x02, 0x01, 0x00, 0x04, 0x00, 0x80, 0x00},
		},
	}
	data, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	c.conn.Write(data)

	got, resp := c.response()
	if got.MessageID != 4 || resp.Type != ldap.ApplicationBindResponse || resp.ResultCode != ldap.ResultProtocolError {
		t.Errorf("response = %d %+v", got.MessageID, resp)
	}
	if !strings.Contains(resp.DiagnosticMessage, "version") {
		t.Errorf("diagnostic = %q", resp.DiagnosticMessage)
	}
}

func TestServer_MalformedSearchFilter(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	// An AND filter with no children.
	msg := &ldap.LDAPMessage{
		MessageID: 6,
		Operation: &ldap.RawOperation{
			Tag:         ldap.ApplicationSearchRequest,
			Constructed: true,
			Data: []byte{
				0x04, 0x00, // baseObject
				0x0a, 0x01, 0x00, 0x0a, 0x01, 0x00, // scope, derefAliases
				0x02, 0x01, 0x00, 0x02, 0x01, 0x00, // sizeLimit, timeLimit
				0x01, 0x01, 0x00, // typesOnly
				0xa0, 0x00, // filter
				0x30, 0x00, // attributes
			},
		},
	}
	data, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	c.conn.Write(data)

	got, resp := c.response()
	if got.MessageID != 6 || resp.Type != ldap.ApplicationSearchResultDone || resp.ResultCode != ldap.ResultProtocolError {
		t.Errorf("response = %d %+v", got.MessageID, resp)
	}
}

func TestServer_DecodeFailureDisconnects(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	c.conn.Write([]byte{0x04, 0x00})

	msg, resp := c.response()
	if msg.MessageID != 0 || resp.Type != ldap.ApplicationExtendedResponse {
		t.Fatalf("notice = %d %+v", msg.MessageID, resp)
	}
	if resp.ResponseName != ldap.OIDNoticeOfDisconnection || resp.ResultCode != ldap.ResultProtocolError {
		t.Errorf("notice = %+v", resp)
	}
	c.expectClosed()
}

func TestServer_ResponseFromClientDisconnects(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)

	c.send(1, &ldap.Response{Type: ldap.ApplicationBindResponse, LDAPResult: ldap.NewSuccessResult()})

	_, resp := c.response()
	if resp.ResponseName != ldap.OIDNoticeOfDisconnection || resp.ResultCode != ldap.ResultProtocolError {
		t.Errorf("notice = %+v", resp)
	}
	c.expectClosed()
}

func TestServer_MessageTooLarge(t *testing.T) {
	rs := startServer(t, Config{Codec: grammar.Options{MaxMessageSize: 64}}, nil)
	c := dial(t, rs)

	c.send(1, &ldap.DeleteRequest{DN: strings.Repeat("x", 100)})

	_, resp := c.response()
	if resp.ResponseName != ldap.OIDNoticeOfDisconnection {
		t.Errorf("notice = %+v", resp)
	}
	c.expectClosed()
}

func TestServer_MaxConnections(t *testing.T) {
	rs := startServer(t, Config{MaxConnections: 1}, nil)
	first := dial(t, rs)
	first.send(1, &ldap.DeleteRequest{DN: "cn=x"})
	first.response()

	second := dial(t, rs)
	second.expectClosed()
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	c := dial(t, rs)
	c.send(1, &ldap.DeleteRequest{DN: "cn=x"})
	c.response()

	rs.cancel()
	if err := <-rs.done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
	rs.done <- nil

	if _, err := c.reader.Next(); err == nil {
		t.Error("connection still open after shutdown")
	}
	if n := rs.srv.ActiveConnections(); n != 0 {
		t.Errorf("active connections = %d", n)
	}
}

func TestServer_ServeTwice(t *testing.T) {
	rs := startServer(t, Config{}, nil)
	rs.srv.Addr()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if err := rs.srv.Serve(context.Background(), l); !errors.Is(err, ErrServerRunning) {
		t.Errorf("err = %v", err)
	}
}

// lockedBuffer is a bytes.Buffer safe for the server's goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_Logging(t *testing.T) {
	var out lockedBuffer
	logger := logging.NewWithWriter(logging.Config{Level: "debug", Format: "json"}, &out)
	rs := startServer(t, Config{}, logger)
	c := dial(t, rs)

	c.send(7, &ldap.BindRequest{Version: 3, Name: "cn=logged"})
	c.response()
	c.send(8, &ldap.UnbindRequest{})
	c.expectClosed()
	rs.stop()

	logs := out.String()
	for _, want := range []string{`"request_id"`, `"operation decoded"`, `"dn":"cn=logged"`, `"operation":"BindRequest"`, `"connection closed"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}
