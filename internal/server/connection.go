package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/KilimcininKorOglu/obacodec/internal/ldap"
	"github.com/KilimcininKorOglu/obacodec/internal/logging"
	"github.com/KilimcininKorOglu/obacodec/internal/stream"
)

// Connection is one client connection and its message loop.
type Connection struct {
	conn      net.Conn
	server    *Server
	reader    *stream.Reader[ldap.LDAPMessage]
	writer    *stream.Writer
	logger    logging.Logger
	requestID string
	startTime time.Time

	// mu serializes writes and guards closed
	mu     sync.Mutex
	closed bool
}

func newConnection(conn net.Conn, server *Server) *Connection {
	requestID := logging.GenerateRequestID()
	cfg := server.config
	return &Connection{
		conn:      conn,
		server:    server,
		reader:    stream.NewReaderSize(conn, ldap.MessageGrammar, cfg.Codec, cfg.ReadBufferSize),
		writer:    stream.NewWriter(conn, ldap.MessageGrammar.Name()),
		logger:    server.logger.WithRequestID(requestID),
		requestID: requestID,
		startTime: time.Now(),
	}
}

// Handle runs the message loop until the client unbinds, the connection
// fails, or a protocol error forces a disconnect.
func (c *Connection) Handle() {
	client := c.conn.RemoteAddr().String()
	c.logger.Info("connection established", "client", client)

	defer func() {
		c.logger.Info("connection closed",
			"client", client,
			"duration_ms", time.Since(c.startTime).Milliseconds())
		c.Close()
	}()

	for {
		if t := c.server.config.ReadTimeout; t > 0 {
			c.conn.SetReadDeadline(time.Now().Add(t))
		}

		msg, err := c.reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || c.isClosed() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) {
				c.logger.Warn("network error", "error", err.Error())
				return
			}
			c.logger.Warn("protocol error", "error", err.Error())
			c.disconnect(ldap.ResultCodeForError(err), err.Error())
			return
		}

		if !c.dispatchMessage(msg) {
			return
		}
	}
}

// dispatchMessage handles one message and reports whether the loop should
// continue.
func (c *Connection) dispatchMessage(msg *ldap.LDAPMessage) bool {
	op := msg.OperationType()
	log := c.logger.WithFields("message_id", msg.MessageID, "operation", op.String())

	switch op {
	case ldap.ApplicationUnbindRequest:
		if _, err := ldap.ParseUnbindRequest(msg.Operation.Data); err != nil {
			log.Debug("malformed unbind", "error", err.Error())
		}
		log.Debug("unbind request received")
		return false
	case ldap.ApplicationAbandonRequest:
		if req, err := ldap.ParseAbandonRequest(msg.Operation.Data); err == nil {
			log.Debug("abandon ignored", "abandon_id", req.MessageID)
		}
		return true
	}

	respType, ok := op.ResponseType()
	if !ok {
		log.Warn("unexpected operation from client")
		c.disconnect(ldap.ResultProtocolError, "unexpected "+op.String())
		return false
	}

	fields, err := describeOperation(msg.Operation)
	var result ldap.LDAPResult
	if err != nil {
		log.Info("malformed operation", "error", err.Error())
		result = ldap.NewErrorResult(ldap.ResultCodeForError(err), err.Error())
	} else {
		log.Info("operation decoded", fields...)
		result = ldap.NewErrorResult(ldap.ResultUnwillingToPerform, "inspector does not perform operations")
	}

	resp, err := ldap.NewMessage(msg.MessageID, &ldap.Response{Type: respType, LDAPResult: result})
	if err != nil {
		log.Error("failed to build response", "error", err.Error())
		return false
	}
	if err := c.WriteMessage(resp); err != nil {
		log.Warn("write error", "error", err.Error())
		return false
	}
	return true
}

// disconnect sends a Notice of Disconnection. The caller closes the
// connection.
func (c *Connection) disconnect(code ldap.ResultCode, message string) {
	notice, err := ldap.NewNoticeOfDisconnection(code, message)
	if err != nil {
		c.logger.Error("failed to build notice of disconnection", "error", err.Error())
		return
	}
	if err := c.WriteMessage(notice); err != nil {
		c.logger.Debug("notice of disconnection not sent", "error", err.Error())
	}
}

// WriteMessage writes an LDAP message to the connection.
func (c *Connection) WriteMessage(msg *ldap.LDAPMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if t := c.server.config.WriteTimeout; t > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(t))
	}
	return c.writer.Write(msg)
}

// Close closes the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// RequestID returns the identifier attached to the connection's log entries.
func (c *Connection) RequestID() string {
	return c.requestID
}
