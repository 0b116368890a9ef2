package sshconn

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
)

// Manager scopes one session (and channel) to one operation.
type Manager struct {
	dialer   Dialer
	endpoint Endpoint
	log      *logger.Entry
}

// NewManager creates a Manager that connects to ep through dialer.
func NewManager(dialer Dialer, ep Endpoint) *Manager {
	return &Manager{
		dialer:   dialer,
		endpoint: ep,
		log: logger.WithFields(logger.Fields{
			"component": "sshconn",
			"host":      ep.Address(),
		}),
	}
}

// Endpoint returns the endpoint this manager connects to.
func (m *Manager) Endpoint() Endpoint {
	return m.endpoint
}

// WithSession dials a new session, passes it to fn and closes it afterwards.
// fn's error is returned unchanged; dial failures are wrapped in
// ErrConnection.
func (m *Manager) WithSession(ctx context.Context, fn func(Session) error) error {
	m.log.Debugf("connecting as %s", m.endpoint.Credentials.Username)

	sess, err := m.dialer.Dial(ctx, m.endpoint)
	if err != nil {
		return fmt.Errorf("%w: connect to %s as %s: %w", ErrConnection, m.endpoint.Address(), m.endpoint.Credentials.Username, err)
	}
	defer m.closeSession(sess)

	return fn(sess)
}

// WithConnection is WithSession plus one channel opened on the session. The
// channel is closed before the session.
func (m *Manager) WithConnection(ctx context.Context, fn func(Channel) error) error {
	return m.WithSession(ctx, func(sess Session) error {
		ch, err := m.OpenChannel(sess)
		if err != nil {
			return err
		}
		defer m.CloseChannel(ch)

		return fn(ch)
	})
}

// OpenChannel opens an additional channel on sess. Callers running parallel
// transfers over one session open one channel per transfer.
func (m *Manager) OpenChannel(sess Session) (Channel, error) {
	ch, err := sess.OpenChannel()
	if err != nil {
		return nil, fmt.Errorf("%w: open channel to %s: %w", ErrConnection, m.endpoint.Address(), err)
	}
	return ch, nil
}

// CloseChannel closes ch, logging rather than returning any error.
func (m *Manager) CloseChannel(ch Channel) {
	if err := ch.Close(); err != nil {
		m.log.Warnf("error closing sftp channel, closing the ssh session anyway: %v", err)
	}
}

func (m *Manager) closeSession(sess Session) {
	if err := sess.Close(); err != nil {
		m.log.Warnf("error closing ssh session: %v", err)
		return
	}
	m.log.Debug("disconnected")
}
