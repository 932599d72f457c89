package ws

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/uslugi-backend/internal/logger"
)

// Hub управляет подписками на каналы заказов. Каждый заказ — отдельный ключ,
// на него может быть подписано несколько соединений (обе стороны, несколько
// вкладок). Единственный цикл Run гарантирует доставку в порядке записи:
// сообщения одного заказа не переупорядочиваются между подписчиками.
type Hub struct {
	mu         sync.RWMutex
	channels   map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan orderMessage
}

type orderMessage struct {
	orderID uuid.UUID
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		channels:   make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan orderMessage, 64),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.orderID, msg.payload)
		}
	}
}

// Register подписывает клиента на канал его заказа.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister снимает подписку.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToOrder отправляет событие всем текущим подписчикам канала заказа.
// Офлайновые подписчики ничего не получают и не докачивают: переподключившись,
// клиент сначала забирает историю, затем подписывается на хвост.
func (h *Hub) BroadcastToOrder(orderID uuid.UUID, event string, data interface{}) error {
	// Сообщение строго следует контракту WebSocket API:
	// "type" содержит имя события, "data" — полезную нагрузку.
	payload := map[string]interface{}{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.broadcast <- orderMessage{orderID: orderID, payload: raw}
	return nil
}

// SubscriberCount возвращает число живых подписчиков канала заказа.
func (h *Hub) SubscriberCount(orderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[orderID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[client.orderID]; !ok {
		h.channels[client.orderID] = make(map[*Client]struct{})
	}
	h.channels[client.orderID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.channels[client.orderID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, client.orderID)
		}
	}
}

// send раздаёт payload подписчикам канала. Отправка в каждого клиента
// неблокирующая: медленный или отвалившийся подписчик закрывается и
// не задерживает доставку остальным.
func (h *Hub) send(orderID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[orderID] {
		select {
		case client.send <- payload:
		default:
			go func(c *Client) {
				defer func() {
					if r := recover(); r != nil {
						logger.WithComponent("ws").WithFields(logrus.Fields{
							"panic": r,
							"stack": string(debug.Stack()),
						}).Error("паника при закрытии клиента")
					}
				}()
				c.Close()
			}(client)
		}
	}
}
