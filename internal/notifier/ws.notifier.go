// Package notifier fans transaction events out to live websocket clients.
// Publishing is fire-and-forget: a user with no subscribers is a silent
// no-op and a dead client is dropped, never waited on.
package notifier

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/domain"
)

// Connection wraps a websocket.Conn with its owner key.
type Connection struct {
	Conn    *websocket.Conn
	UserKey string
}

type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{} // userKey -> set of connections
	logger      *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		connections: make(map[string]map[*Connection]struct{}),
		logger:      logger,
	}
}

func userKey(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

func (m *Manager) Add(userID int64, conn *websocket.Conn) *Connection {
	key := userKey(userID)
	c := &Connection{Conn: conn, UserKey: key}

	m.mu.Lock()
	if _, ok := m.connections[key]; !ok {
		m.connections[key] = make(map[*Connection]struct{})
	}
	m.connections[key][c] = struct{}{}
	total := len(m.connections[key])
	m.mu.Unlock()

	m.logger.Info("ws connected", zap.String("user", key), zap.Int("total", total))
	return c
}

func (m *Manager) Remove(c *Connection) {
	m.mu.Lock()
	if conns, ok := m.connections[c.UserKey]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(m.connections, c.UserKey)
		}
	}
	m.mu.Unlock()

	_ = c.Conn.Close()
	m.logger.Info("ws disconnected", zap.String("user", c.UserKey))
}

// TransactionEvent is the wire format pushed to subscribed clients after a
// reconciled or interactive deposit lands.
type TransactionEvent struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	SentAt  time.Time `json:"sent_at"`

	Transaction struct {
		ID                string  `json:"id"`
		TransactionNumber string  `json:"transaction_number"`
		Amount            float64 `json:"amount"`
		Type              string  `json:"type"`
		Status            string  `json:"status"`
		Description       string  `json:"description"`
		Date              string  `json:"date"`
		IIN               string  `json:"iin"`
		Name              string  `json:"name"`

		Relative *struct {
			ID       int64  `json:"id"`
			FullName string `json:"full_name"`
			IIN      string `json:"iin"`
		} `json:"relative,omitempty"`
	} `json:"transaction"`
}

// PublishTransaction sends the event to every live connection of the user.
func (m *Manager) PublishTransaction(userID int64, tx *domain.Transaction, user *domain.User, relative *domain.Relative) {
	event := TransactionEvent{
		EventID: uuid.NewString(),
		Type:    "TRANSACTION",
		SentAt:  time.Now(),
	}
	event.Transaction.ID = tx.ID
	event.Transaction.TransactionNumber = tx.TransactionNumber
	event.Transaction.Amount = tx.Amount
	event.Transaction.Type = tx.Type
	event.Transaction.Status = tx.Status
	event.Transaction.Description = tx.Description
	event.Transaction.Date = tx.CreatedAt.Format(time.RFC3339)
	if user != nil {
		event.Transaction.IIN = user.IIN
		event.Transaction.Name = user.Name
	}
	if relative != nil {
		event.Transaction.Relative = &struct {
			ID       int64  `json:"id"`
			FullName string `json:"full_name"`
			IIN      string `json:"iin"`
		}{ID: relative.ID, FullName: relative.FullName, IIN: relative.IIN}
	}

	key := userKey(userID)

	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections[key]))
	for c := range m.connections[key] {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	for _, c := range conns {
		if err := c.Conn.WriteJSON(event); err != nil {
			m.logger.Warn("ws send failed, dropping connection",
				zap.String("user", key), zap.Error(err))
			go m.Remove(c)
		}
	}
}
