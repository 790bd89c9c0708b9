package musicgpt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrReadTimeout reports that no event arrived within the poll window. The
// stream stays usable; callers re-check their other completion detectors and
// poll again.
var ErrReadTimeout = errors.New("musicgpt: stream read timeout")

// Stream is the duplex event stream shared by all units in a run. Units are
// dispatched strictly sequentially, so a single reader owns the connection.
type Stream struct {
	conn     *websocket.Conn
	messages chan []byte
	readErr  chan error
	// done is closed by Close so a reader blocked on a full messages
	// buffer can abandon its pending send instead of leaking.
	done       chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
}

// Dial connects the duplex stream.
func Dial(ctx context.Context, url string) (*Stream, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: http %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &Stream{
		conn:       conn,
		messages:   make(chan []byte, 16),
		readErr:    make(chan error, 1),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// readLoop pumps raw messages into a channel so Next can poll with a
// timeout without poisoning the connection's read deadline. It exits on a
// read error or once Close abandons the stream.
func (s *Stream) readLoop() {
	defer close(s.readerDone)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case s.readErr <- err:
			case <-s.done:
			}
			return
		}
		select {
		case s.messages <- data:
		case <-s.done:
			return
		}
	}
}

// Handshake consumes the backend's initial informational messages and
// returns their text.
func (s *Stream) Handshake(count int, timeout time.Duration) ([]string, error) {
	infos := make([]string, 0, count)
	for i := 0; i < count; i++ {
		event, err := s.Next(timeout)
		if err != nil {
			return infos, fmt.Errorf("handshake message %d: %w", i+1, err)
		}
		if event.Type == EventInfo && event.Message != "" {
			infos = append(infos, event.Message)
		}
	}
	return infos, nil
}

// Send submits a generation request.
func (s *Stream) Send(req GenerationRequest) error {
	if err := s.conn.WriteJSON(encodeRequest(req)); err != nil {
		return fmt.Errorf("send generation request: %w", err)
	}
	return nil
}

// Next returns the next decoded event, or ErrReadTimeout when nothing
// arrives within the window.
func (s *Stream) Next(timeout time.Duration) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-s.messages:
		return DecodeEvent(data)
	case err := <-s.readErr:
		return Event{}, fmt.Errorf("stream read: %w", err)
	case <-timer.C:
		return Event{}, ErrReadTimeout
	}
}

// Close shuts the connection down and releases the reader.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return s.conn.Close()
}
