package mailgw

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/utils"
	"go.uber.org/zap"
)

// Gateway is an inbound SMTP surface that runs message bodies through the
// detection API, stamps classification headers, and optionally relays the
// message upstream. A detector failure passes the message through untagged;
// detection is best-effort here just as it is for navigations.
type Gateway struct {
	detector      core.DetectorClient
	history       core.HistoryStore
	logger        *zap.Logger
	server        *smtp.Server
	listenAddr    string
	relayAddr     string
	relayPort     int
	relayEnabled  bool
	blockPhishing bool
	maxBodySize   int
	statusHeader  string
	scoreHeader   string
	reasonHeader  string
}

// Options configures a Gateway.
type Options struct {
	ListenAddr    string
	RelayAddr     string
	RelayPort     int
	RelayEnabled  bool
	BlockPhishing bool
	MaxBodySize   int
	StatusHeader  string
	ScoreHeader   string
	ReasonHeader  string
}

// NewGateway creates a new mail gateway.
func NewGateway(detector core.DetectorClient, history core.HistoryStore, logger *zap.Logger, opts Options) *Gateway {
	return &Gateway{
		detector:      detector,
		history:       history,
		logger:        logger,
		listenAddr:    opts.ListenAddr,
		relayAddr:     opts.RelayAddr,
		relayPort:     opts.RelayPort,
		relayEnabled:  opts.RelayEnabled,
		blockPhishing: opts.BlockPhishing,
		maxBodySize:   opts.MaxBodySize,
		statusHeader:  opts.StatusHeader,
		scoreHeader:   opts.ScoreHeader,
		reasonHeader:  opts.ReasonHeader,
	}
}

// Start starts the SMTP server.
func (g *Gateway) Start() error {
	g.server = smtp.NewServer(&smtpBackend{gateway: g})
	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 30 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("Mail gateway starting", zap.String("address", g.listenAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server.
func (g *Gateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// process analyzes a received message and returns the data to relay.
func (g *Gateway) process(sender string, recipients []string, data []byte) ([]byte, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		g.logger.Warn("Failed to parse message, passing through", zap.Error(err))
		return data, nil
	}

	content, err := extractTextContent(msg)
	if err != nil {
		g.logger.Warn("Failed to extract message text, passing through", zap.Error(err))
		return data, nil
	}
	content = utils.SanitizeUTF8(content)
	if g.maxBodySize > 0 && len(content) > g.maxBodySize {
		content = content[:g.maxBodySize]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := g.detector.AnalyzeEmail(ctx, content)
	if err != nil {
		g.logger.Debug("Detection API unavailable, passing message through",
			zap.String("sender", sender),
			zap.Error(err))
		return data, nil
	}

	g.logger.Info("Message analyzed",
		zap.String("sender", sender),
		zap.String("classification", string(result.Classification)),
		zap.Float64("score", result.Score))

	if g.history != nil {
		item := core.NewHistoryItem(core.AnalysisTypeEmail, content, result, time.Now())
		if err := g.history.Record(ctx, item); err != nil {
			g.logger.Error("Failed to record analysis in history", zap.Error(err))
		}
	}

	if g.blockPhishing && result.IsAdverse() {
		return nil, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Message rejected as phishing",
		}
	}

	headers := fmt.Sprintf("%s: %s\r\n%s: %.1f\r\n%s: %s\r\n",
		g.statusHeader, result.Classification,
		g.scoreHeader, result.Score,
		g.reasonHeader, result.Message)

	return append([]byte(headers), data...), nil
}

// relay sends the processed message to the upstream MTA.
func (g *Gateway) relay(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", g.relayAddr, g.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		accepted = true
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gateway *Gateway
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{gateway: b.gateway}, nil
}

// smtpSession holds the state of one inbound delivery.
type smtpSession struct {
	gateway    *Gateway
	sender     string
	recipients []string
}

func (s *smtpSession) Mail(from string, opts *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, opts *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read message data: %w", err)
	}

	tagged, err := s.gateway.process(s.sender, s.recipients, data)
	if err != nil {
		return err
	}

	if !s.gateway.relayEnabled {
		s.gateway.logger.Debug("Relay disabled, dropping message after analysis",
			zap.String("sender", s.sender))
		return nil
	}

	if err := s.gateway.relay(s.sender, s.recipients, tagged); err != nil {
		s.gateway.logger.Error("Failed to relay message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary relay failure",
		}
	}

	return nil
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Logout() error {
	return nil
}
