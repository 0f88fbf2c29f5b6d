package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatter-service/config"
	"chatter-service/controller"
	"chatter-service/database"
	"chatter-service/event"
	"chatter-service/event/listener"
	"chatter-service/media"
	"chatter-service/relay"
	"chatter-service/router"
	"chatter-service/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"golang.org/x/time/rate"
)

func main() {
	log.SetPrefix("chatter-service: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "chatter-service",
		BodyLimit:             config.Int("MEDIA_MAX_BYTES", 5<<20) * 2,
	})

	rest.Use(cors.New(cors.Config{
		AllowOrigins:     config.Default("CORS_ORIGINS", "http://localhost:5173"),
		AllowCredentials: true,
	}))

	database.RedisConnect()
	database.PostgresConnect()
	database.CasbinConnect()

	// Media store
	controller.Images = media.NewDatabase(database.Postgres)
	controller.Media = controller.Images
	if url := config.Config("CLOUDINARY_URL"); url != "" {
		cld, err := media.NewCloudinary(url)
		if err != nil {
			panic(err)
		}
		controller.Media = cld
		log.Printf("Uploading media to Cloudinary")
	}

	socket := socketio.Init(rest)

	hub := relay.New(socket, relay.NewPresence(), relay.Options{
		MessageRate:  rate.Limit(config.Float("RELAY_MESSAGE_RATE", 5)),
		MessageBurst: config.Int("RELAY_MESSAGE_BURST", 20),
	})

	if config.Config("RABBITMQ_HOST") != "" {
		event.Connect([]string{
			// Connect to queues
			event.QueueChat,
		})

		// Run "chat" listener
		go listener.Chat(hub)

		// Subscribe listener channel to "chat" events
		event.Subscribe([]event.Listener{
			{
				Queue:   event.QueueChat,
				Channel: listener.ChatChannel,
			},
		})

		go event.Replay()
	} else {
		log.Printf("RABBITMQ_HOST not set, server push disabled")
	}

	router.Rest(rest, hub)
	router.Socket(socket, hub)

	go func() {
		if err := rest.Listen(fmt.Sprintf(":%s", config.Default("SERVER_PORT", "5001"))); err != nil {
			log.Printf("listen: %v", err)
		}
	}()

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	hub.Close()
	socket.Close(nil)
	if err := rest.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	event.Close()
	database.RedisClose()
	os.Exit(0)
}
