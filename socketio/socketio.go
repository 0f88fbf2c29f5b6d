package socketio

import (
	"context"
	"time"

	"chatter-service/config"
	"chatter-service/database"
	"chatter-service/relay"
	"chatter-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Server publishes relay events over socket.io. It implements relay.Broadcaster.
type Server struct {
	*socket.Server
}

func Init(app *fiber.App) *Server {
	log.DEBUG = config.Bool("SOCKET_DEBUG", false)

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(config.Duration("SOCKET_PING_INTERVAL", 25*time.Second))
	options.SetPingTimeout(config.Duration("SOCKET_PING_TIMEOUT", 60*time.Second))
	options.SetMaxHttpBufferSize(int64(config.Int("MEDIA_MAX_BYTES", 5<<20)) * 2)
	options.SetConnectTimeout(config.Duration("SOCKET_CONNECT_TIMEOUT", 45*time.Second))
	if redis, ok := database.Redis[database.RedisSocket]; ok {
		options.SetAdapter(&adapter.RedisAdapterBuilder{
			Redis: r_type.NewRedisClient(context.Background(), redis),
			Opts:  &adapter.RedisAdapterOptions{},
		})
	}

	server := socket.NewServer(nil, nil)

	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, auth := client.Conn().Request().Query().Get("token")

		if auth {
			claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY")

			if err == nil {
				if !claims.Otp {
					client.Join(socket.Room(claims.Id))
					client.SetData(claims)
				}
			}
		}

		next(nil)
	})

	app.Get("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))
	app.Post("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))

	return &Server{Server: server}
}

// ConnID is the relay identity of a socket.
func ConnID(client *socket.Socket) relay.ConnID {
	return relay.ConnID(client.Id())
}

// UserID returns the id of the user authenticated at handshake, if any.
func UserID(client *socket.Socket) string {
	claims, ok := client.Data().(*utils.TokenMetadata)
	if !ok || claims == nil {
		return ""
	}
	return claims.Id
}

func (s *Server) Broadcast(event string, payload any) {
	s.Server.Emit(event, payload)
}

// BroadcastExcept relies on every socket being joined to a room named after its id.
func (s *Server) BroadcastExcept(origin relay.ConnID, event string, payload any) {
	s.Server.Except(socket.Room(origin)).Emit(event, payload)
}

func (s *Server) EmitToUser(userID string, event string, payload any) {
	s.Server.To(socket.Room(userID)).Emit(event, payload)
}
