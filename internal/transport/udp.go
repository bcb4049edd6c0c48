package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

const readDeadline = 1 * time.Second

// Config holds the UDP endpoints.
type Config struct {
	// ListenAddr is the local address triggers arrive on, "ip:port".
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" json:"listen_addr"`
	// SendAddr is the peer address results are sent to, "ip:port".
	SendAddr string `mapstructure:"send_addr" yaml:"send_addr" json:"send_addr"`
}

// UDP is a datagram transport bound to one listen socket and one result
// peer. Recv is driven by a single goroutine; Send is safe concurrently.
type UDP struct {
	conn     *net.UDPConn
	sendAddr *net.UDPAddr
	buf      []byte
	log      *slog.Logger
}

// New binds the listen socket and resolves the result peer.
func New(cfg Config, logger *slog.Logger) (*UDP, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listenAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve listen address %q: %w", cfg.ListenAddr, err)
	}
	sendAddr, err := net.ResolveUDPAddr("udp", cfg.SendAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve send address %q: %w", cfg.SendAddr, err)
	}
	conn, err := net.ListenUDP("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP %q: %w", cfg.ListenAddr, err)
	}
	logger.Info("udp transport ready", "listen", cfg.ListenAddr, "send", cfg.SendAddr)
	return &UDP{
		conn:     conn,
		sendAddr: sendAddr,
		buf:      make([]byte, 2048),
		log:      logger,
	}, nil
}

// Recv blocks until a datagram arrives or ctx is cancelled. The read uses a
// short deadline so cancellation is noticed promptly; deadline expiry is
// expected and keeps the loop turning.
func (u *UDP) Recv(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if err := u.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return "", fmt.Errorf("failed to set read deadline: %w", err)
		}
		n, _, err := u.conn.ReadFromUDP(u.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return "", fmt.Errorf("failed to read datagram: %w", err)
		}
		return string(u.buf[:n]), nil
	}
}

// Send transmits one datagram to the configured result peer.
func (u *UDP) Send(msg string) error {
	if _, err := u.conn.WriteToUDP([]byte(msg), u.sendAddr); err != nil {
		return fmt.Errorf("failed to send datagram: %w", err)
	}
	return nil
}

// LocalAddr returns the bound listen address.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// Close releases the socket.
func (u *UDP) Close() error { return u.conn.Close() }
