package serve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"chromakey/video/layer"
)

const (
	// Time allowed to write message to the client
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
)

// LayerUpdater pushes the layer states as JSON to every connected websocket
// whenever a layer is toggled, so all open control pages stay in sync.
type LayerUpdater struct {
	layers   *layer.Set
	upgrader websocket.Upgrader
	cs       map[chan []byte]bool
	addc     chan chan []byte
	delc     chan chan []byte
	notify   chan []byte
}

func NewLayerUpdater(layers *layer.Set) *LayerUpdater {
	m := &LayerUpdater{
		layers: layers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		cs:     make(map[chan []byte]bool),
		addc:   make(chan chan []byte),
		delc:   make(chan chan []byte),
		notify: make(chan []byte),
	}
	go func() {
		for {
			select {
			case c := <-m.addc:
				m.cs[c] = true
			case c := <-m.delc:
				delete(m.cs, c)
			case msg := <-m.notify:
				for c := range m.cs {
					send(c, msg)
				}
			}
		}
	}()
	layers.AddListener(m)
	return m
}

// send delivers msg, replacing an undelivered older state.
func send(c chan []byte, msg []byte) {
	select {
	case <-c:
	default:
	}
	c <- msg
}

func (m *LayerUpdater) message() []byte {
	js, err := json.Marshal(states(m.layers))
	if err != nil {
		log.Errorf("Failed to encode layer state: %v", err)
		return nil
	}
	return js
}

// LayerChanged implements layer.Listener.
func (m *LayerUpdater) LayerChanged(layer.Layer) {
	if msg := m.message(); msg != nil {
		m.notify <- msg
	}
}

func (m *LayerUpdater) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.WithField("addr", r.RemoteAddr).Errorf("Websocket handshake failed for layer stream: %v", err)
		}
		return
	}
	go m.serve(ws)
}

func (m *LayerUpdater) serve(ws *websocket.Conn) {
	clog := log.WithField("addr", ws.RemoteAddr())
	clog.Info("connected to layer update socket")
	defer func() {
		ws.Close()
		clog.Info("disconnected from layer update socket")
	}()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	notifyc := make(chan []byte, 1)
	if msg := m.message(); msg != nil {
		notifyc <- msg
	}
	m.addc <- notifyc
	defer func() { m.delc <- notifyc }()

	// Even though we don't care about incoming messages, we need to read from
	// the socket in order to process control messages.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-notifyc:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-pingTicker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
