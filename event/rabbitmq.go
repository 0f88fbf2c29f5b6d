package event

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chatter-service/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queues and actions
const (
	QueueChat            = "chat"
	ActionMessageCreated = "message.created"
)

const ActionHeader string = "x-action"
const InLogPath string = "log/in.log"
const OutLogPath string = "log/out.log"

type Data struct {
	Action string
	Body   []byte
	// Replayed is set for events read back from the in-log.
	Replayed bool
}

type Listener struct {
	Queue   string
	Channel chan Data
}

type LogEntry struct {
	Time   int64  `json:"time"`
	Queue  string `json:"queue"`
	Action string `json:"action"`
	Data   string `json:"data"`
}

var (
	Connection *amqp.Connection
	Channel    *amqp.Channel
	Listeners  = make(map[string]chan Data)

	logMu  sync.Mutex
	inLog  *os.File
	outLog *os.File
)

func Connect(queues []string) {
	var err error

	// Connect to RabbitMQ server
	Connection, err = amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		config.Config("RABBITMQ_USER"),
		config.Config("RABBITMQ_PASSWORD"),
		config.Config("RABBITMQ_HOST"),
		config.Config("RABBITMQ_PORT"),
	))
	if err != nil {
		panic(fmt.Sprintf("failed to connect to RabbitMQ: %v", err))
	}
	log.Printf("connection opened to RabbitMQ server")

	// Open a RabbitMQ channel
	Channel, err = Connection.Channel()
	if err != nil {
		panic(fmt.Sprintf("failed to open a RabbitMQ channel: %v", err))
	}

	// Declare queues
	for _, name := range queues {
		if _, err := Channel.QueueDeclare(
			name,  // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			panic(fmt.Sprintf("failed to declare RabbitMQ queue %s: %v", name, err))
		}
		log.Printf("declared RabbitMQ queue: %s", name)
	}

	if logging() {
		if err := openLogs(); err != nil {
			panic(err)
		}
	}
}

func Connected() bool {
	return Channel != nil && !Channel.IsClosed()
}

func Subscribe(listeners []Listener) {
	for _, listener := range listeners {
		Listeners[listener.Queue] = listener.Channel

		msgs, err := Channel.Consume(
			listener.Queue, // queue
			"",             // consumer
			false,          // auto-ack
			false,          // exclusive
			false,          // no-local
			false,          // no-wait
			nil,            // args
		)
		if err != nil {
			panic(fmt.Sprintf("failed to register a consumer on %s: %v", listener.Queue, err))
		}
		log.Printf("subscribed to RabbitMQ [%s] queue", listener.Queue)

		go func(listener Listener) {
			for msg := range msgs {
				action, _ := msg.Headers[ActionHeader].(string)
				writeLog(inLog, LogEntry{
					Time:   time.Now().UnixMicro(),
					Queue:  listener.Queue,
					Action: action,
					Data:   string(msg.Body),
				})

				if err := msg.Ack(false); err != nil {
					log.Printf("ack %s/%s: %v", listener.Queue, action, err)
				}
				listener.Channel <- Data{Action: action, Body: msg.Body}
			}
		}(listener)
	}
}

// Emit publishes an action on queue. Without a broker connection it is a no-op.
func Emit(ctx context.Context, queue string, action string, body []byte) error {
	if !Connected() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := Channel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				ActionHeader: action,
			},
			Body: body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s/%s: %w", queue, action, err)
	}

	writeLog(outLog, LogEntry{
		Time:   time.Now().UnixMicro(),
		Queue:  queue,
		Action: action,
		Data:   string(body),
	})
	return nil
}

// EmitJSON marshals v and publishes it.
func EmitJSON(ctx context.Context, queue string, action string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", action, err)
	}
	return Emit(ctx, queue, action, body)
}

// Replay feeds logged events back according to EVENT_MODE: "IN" re-delivers
// the in-log to the subscribed listeners, "OUT" re-publishes the out-log.
func Replay() {
	switch config.Config("EVENT_MODE") {
	case "IN":
		replay(InLogPath, func(entry LogEntry) {
			if ch, ok := Listeners[entry.Queue]; ok {
				ch <- Data{Action: entry.Action, Body: []byte(entry.Data), Replayed: true}
			}
		})
	case "OUT":
		replay(OutLogPath, func(entry LogEntry) {
			if err := Emit(context.Background(), entry.Queue, entry.Action, []byte(entry.Data)); err != nil {
				log.Printf("replay %s/%s: %v", entry.Queue, entry.Action, err)
			}
		})
	}
}

func Close() {
	if Channel != nil {
		Channel.Close()
	}
	if Connection != nil {
		Connection.Close()
	}
	logMu.Lock()
	defer logMu.Unlock()
	for _, f := range []*os.File{inLog, outLog} {
		if f != nil {
			f.Close()
		}
	}
	inLog, outLog = nil, nil
}

func logging() bool {
	return config.Config("EVENT_MODE") != "DISABLE"
}

func openLogs() error {
	if err := os.MkdirAll(filepath.Dir(InLogPath), 0o700); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}

	var err error
	logMu.Lock()
	defer logMu.Unlock()
	if inLog, err = os.OpenFile(InLogPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600); err != nil {
		return err
	}
	if outLog, err = os.OpenFile(OutLogPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600); err != nil {
		return err
	}
	return nil
}

func writeLog(f *os.File, entry LogEntry) {
	logMu.Lock()
	defer logMu.Unlock()
	if f == nil {
		return
	}

	line, _ := json.Marshal(entry)
	if _, err := f.Write(append(line, '\n')); err != nil {
		log.Printf("event log write: %v", err)
	}
}

func replay(path string, handle func(LogEntry)) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("replay %s: %v", path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		entry := LogEntry{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			log.Printf("replay %s: skipping line: %v", path, err)
			continue
		}
		handle(entry)
	}
	if err := scanner.Err(); err != nil {
		log.Printf("replay %s: %v", path, err)
	}
}
