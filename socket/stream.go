// Package socket bridges the realtime transport to connected clients. Each
// websocket connection subscribes to every receiver-scoped channel of its user
// plus the presence channels of their friends, and forwards published frames
// verbatim.
package socket

import (
	"log"
	"net"
	"time"

	"chatline_server/blocks"
	"chatline_server/channels"
	"chatline_server/dispatch"
	"chatline_server/global"
	"chatline_server/helpers"
	"chatline_server/store"

	redis "github.com/go-redis/redis/v8"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
)

// MAX_WS_CONNECTION_TIME is the read deadline per client frame
var MAX_WS_CONNECTION_TIME = 4 * time.Minute

// Stream owns the per-connection subscribe/forward loop.
type Stream struct {
	users       store.UserRepository
	friendships store.FriendshipRepository
	filter      *blocks.Filter
	dispatcher  *dispatch.Dispatcher
	monitor     *log.Logger
}

// NewStream returns a stream service over the given collaborators.
func NewStream(users store.UserRepository, friendships store.FriendshipRepository, filter *blocks.Filter, dispatcher *dispatch.Dispatcher, monitor *log.Logger) *Stream {
	return &Stream{
		users:       users,
		friendships: friendships,
		filter:      filter,
		dispatcher:  dispatcher,
		monitor:     monitor,
	}
}

// streamConn is the write half of a client connection.
type streamConn interface {
	WriteMessage(messageType int, data []byte) error
	RemoteAddr() net.Addr
}

type streamFrame struct {
	Channel string
	Data    jsoniter.RawMessage
}

func (s *Stream) logErr(c streamConn, problem string, err string) {
	s.monitor.Println("ip: " + c.RemoteAddr().String() + "; Problem: " + problem + "; Error: " + err)
}

// presenceChannels are the default presence channels of every friend the user
// can still see; blocked pairs are skipped on subscribe.
func (s *Stream) presenceChannels(userID string) ([]string, error) {

	friends, err := s.friendships.ListFriends(global.Context, userID)
	if err != nil {
		return nil, err
	}

	var subs []string
	for _, friendship := range friends {
		suppressed, err := s.filter.Suppressed(global.Context, userID, friendship.FriendID)
		if err != nil {
			return nil, err
		}
		if suppressed {
			continue
		}
		name, err := channels.FriendPresence{
			UID:         friendship.FriendID,
			ChannelType: channels.PresenceDefault,
		}.Name()
		if err != nil {
			return nil, err
		}
		subs = append(subs, name)
	}

	return subs, nil
}

// Handler returns the websocket handler for an authenticated connection.
func (s *Stream) Handler() func(*websocket.Conn) {
	return func(ws *websocket.Conn) {

		defer func() {
			if ws != nil && ws.Conn != nil {
				ws.Close()
			}
		}()

		userID := ws.Locals("userid").(string)

		pubsub := global.RedisClient.PSubscribe(global.Context, channels.ReceiverPattern(userID))
		defer pubsub.Close()

		presence, err := s.presenceChannels(userID)
		if err != nil {
			s.logErr(ws, "presence_channels", err.Error())
			return
		}
		if len(presence) > 0 {
			if err = pubsub.Subscribe(global.Context, presence...); err != nil {
				s.logErr(ws, "subscribe", err.Error())
				return
			}
		}

		now := helpers.NowMillis()
		if err = s.users.SetOnline(global.Context, userID, true, now); err != nil {
			s.logErr(ws, "set_online", err.Error())
			return
		}
		s.dispatcher.FriendPresence(global.Context, userID, true, now)

		defer func() {
			lastSeen := helpers.NowMillis()
			if err := s.users.SetOnline(global.Context, userID, false, lastSeen); err != nil {
				s.monitor.Println("set_offline; Error: " + err.Error())
			}
			s.dispatcher.FriendPresence(global.Context, userID, false, lastSeen)
		}()

		pongs := make(chan struct{}, 8)
		readDone := make(chan struct{})

		go s.readLoop(ws, pongs, readDone)

		s.writeLoop(ws, pubsub.Channel(), pongs, readDone)
	}
}

// readLoop consumes client frames. It never writes to the connection; pong
// replies are requested through the pongs channel so the write loop stays the
// single writer.
func (s *Stream) readLoop(ws *websocket.Conn, pongs chan<- struct{}, done chan<- struct{}) {

	defer close(done)

	for {
		if err := ws.SetReadDeadline(time.Now().Add(MAX_WS_CONNECTION_TIME)); err != nil {
			s.logErr(ws, "websocket_read_deadline", err.Error())
			return
		}

		mt, b, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, 1000) {
				s.logErr(ws, "websocket_read", err.Error())
			}
			return
		}
		if mt == websocket.BinaryMessage {
			s.logErr(ws, "websocket_read", "binary message")
			return
		}

		if string(b) == "ping" {
			select {
			case pongs <- struct{}{}:
			default:
			}
		}
	}
}

// writeLoop is the only goroutine writing to the connection. Forwarded pubsub
// frames and pong replies both funnel through it.
func (s *Stream) writeLoop(ws streamConn, frames <-chan *redis.Message, pongs <-chan struct{}, done <-chan struct{}) {

	for {
		select {
		case msg, ok := <-frames:
			if !ok {
				return
			}
			frame, err := jsoniter.Marshal(streamFrame{
				Channel: msg.Channel,
				Data:    jsoniter.RawMessage(msg.Payload),
			})
			if err != nil {
				s.logErr(ws, "jsoniter_marshal", err.Error())
				continue
			}
			if err = ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logErr(ws, "websocket_write", err.Error())
				return
			}
		case <-pongs:
			if err := ws.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				s.logErr(ws, "websocket_write", err.Error())
				return
			}
		case <-done:
			return
		}
	}
}
