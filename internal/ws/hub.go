package ws

import "sync"

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages live deployment streams. One logical channel exists per
// deployment id, multiplexing entry-update and log-append events; the
// channel is created on first subscribe and torn down when its last
// subscriber leaves. All bookkeeping runs on a single goroutine, so
// concurrent subscribe/unsubscribe cannot race the teardown.
type Hub struct {
	channels  map[string]map[Subscriber]struct{}
	subscribe chan subscription
	unsub     chan subscription
	publish   chan message
	stop      chan struct{}
	once      sync.Once
}

// message couples a payload with its deployment id.
type message struct {
	deploymentID string
	payload      []byte
}

// subscription defines subscribe/unsubscribe requests.
type subscription struct {
	deploymentID string
	client       Subscriber
}

// NewHub creates a running Hub.
func NewHub() *Hub {
	h := &Hub{
		channels:  make(map[string]map[Subscriber]struct{}),
		subscribe: make(chan subscription),
		unsub:     make(chan subscription),
		publish:   make(chan message),
		stop:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.subscribe:
			if _, ok := h.channels[sub.deploymentID]; !ok {
				h.channels[sub.deploymentID] = make(map[Subscriber]struct{})
			}
			h.channels[sub.deploymentID][sub.client] = struct{}{}
		case sub := <-h.unsub:
			if clients, ok := h.channels[sub.deploymentID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.channels, sub.deploymentID)
				}
			}
		case msg := <-h.publish:
			if clients, ok := h.channels[msg.deploymentID]; ok {
				for c := range clients {
					if err := c.Send(msg.payload); err != nil {
						c.Close()
						delete(clients, c)
					}
				}
				if len(clients) == 0 {
					delete(h.channels, msg.deploymentID)
				}
			}
		case <-h.stop:
			for id, clients := range h.channels {
				for c := range clients {
					c.Close()
				}
				delete(h.channels, id)
			}
			return
		}
	}
}

// Subscribe attaches a client to a deployment's channel.
func (h *Hub) Subscribe(deploymentID string, client Subscriber) {
	select {
	case h.subscribe <- subscription{deploymentID: deploymentID, client: client}:
	case <-h.stop:
	}
}

// Unsubscribe detaches a client; the last detach tears the channel down.
func (h *Hub) Unsubscribe(deploymentID string, client Subscriber) {
	select {
	case h.unsub <- subscription{deploymentID: deploymentID, client: client}:
	case <-h.stop:
	}
}

// Publish fans a payload out to every subscriber of the deployment.
func (h *Hub) Publish(deploymentID string, payload []byte) {
	select {
	case h.publish <- message{deploymentID: deploymentID, payload: payload}:
	case <-h.stop:
	}
}

// Close shuts the hub down and disconnects all subscribers.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.stop)
	})
}
