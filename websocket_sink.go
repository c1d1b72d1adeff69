package camstream

import (
	"github.com/gorilla/websocket"
)

// WebsocketSink forwards a channel's encoded tagged records to a remote
// consumer over a websocket, taking the channel's single subscriber slot.
// The remote end decodes records with the same codec, so the wire contract
// is identical to the in-process one.
type WebsocketSink struct {
	conn *websocket.Conn
	ch   *ChannelContext
	done chan struct{}
}

// NewWebsocketSink dials url and starts forwarding records from the given
// channel until Close or a write failure.
func NewWebsocketSink(url string, ch *ChannelContext) (*WebsocketSink, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	s := &WebsocketSink{
		conn: conn,
		ch:   ch,
		done: make(chan struct{}),
	}
	go s.writeLoop(ch.SubscribeRecords())
	return s, nil
}

func (s *WebsocketSink) writeLoop(sub <-chan []byte) {
	defer close(s.done)
	for record := range sub {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, record); err != nil {
			log.Error("%s: websocket write: %v", s.ch.ID(), err)
			s.ch.Unsubscribe()
			return
		}
	}
}

// Close stops forwarding, releases the subscriber slot, and closes the
// connection.
func (s *WebsocketSink) Close() error {
	s.ch.Unsubscribe()
	<-s.done
	return s.conn.Close()
}
