package controller

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"chatter-service/database"
	"chatter-service/event"
	"chatter-service/media"
	"chatter-service/metrics"
	"chatter-service/middleware"
	"chatter-service/model"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MessengerSendInput struct {
	Text string `json:"text" form:"text"`
	// Image is a data URL; multipart requests send an "image" file instead.
	Image         string `json:"image" form:"image"`
	CorrelationID string `json:"correlation_id" form:"correlation_id"`
}

// MessengerUsers lists everyone but the caller for the sidebar.
func MessengerUsers(c *fiber.Ctx) error {
	me, err := model.ParseID(middleware.UserID(c))
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized - Invalid token")
	}

	users := []model.User{}
	if err := database.Postgres.
		Where("id <> ?", me).
		Order("full_name asc").
		Find(&users).Error; err != nil {
		log.Printf("list users: %v", err)
		return internalError(c)
	}

	data := make([]fiber.Map, 0, len(users))
	for i := range users {
		data = append(data, userProfile(&users[i]))
	}
	return success(c, fiber.StatusOK, data)
}

// MessengerConversation returns the messages between the caller and :id, oldest first.
func MessengerConversation(c *fiber.Ctx) error {
	me, err := model.ParseID(middleware.UserID(c))
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized - Invalid token")
	}
	other, err := model.ParseID(c.Params("id"))
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid user id")
	}

	messages := []model.Message{}
	if err := database.Postgres.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", me, other, other, me).
		Order("created_at asc").
		Order("id asc").
		Find(&messages).Error; err != nil {
		log.Printf("conversation %d/%d: %v", me, other, err)
		return internalError(c)
	}

	records := make([]model.MessageRecord, 0, len(messages))
	for i := range messages {
		records = append(records, messages[i].Record())
	}
	return success(c, fiber.StatusOK, records)
}

// MessengerSend persists a message to :id. A repeated correlation id returns the
// stored message with duplicate set instead of creating another one.
func MessengerSend(c *fiber.Ctx) error {
	me, err := model.ParseID(middleware.UserID(c))
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized - Invalid token")
	}
	receiverID, err := model.ParseID(c.Params("id"))
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid user id")
	}
	if receiverID == me {
		return failure(c, fiber.StatusBadRequest, "Cannot send a message to yourself")
	}

	input := new(MessengerSendInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	input.CorrelationID = strings.TrimSpace(input.CorrelationID)

	upload, hasImage, err := messageImage(c, input)
	if err != nil {
		return mediaFailure(c, err)
	}
	if strings.TrimSpace(input.Text) == "" && !hasImage {
		return failure(c, fiber.StatusBadRequest, "Message must contain text or an image")
	}

	if input.CorrelationID != "" {
		if existing, err := findByCorrelation(me, input.CorrelationID); err == nil {
			return sent(c, existing, true)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return duplicateFailure(c, err)
		}
	}

	receiver := new(model.User)
	if err := database.Postgres.First(receiver, receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(c, fiber.StatusNotFound, "User not found")
		}
		return internalError(c)
	}

	message := &model.Message{
		SenderID:   me,
		ReceiverID: receiverID,
		Text:       input.Text,
	}
	if input.CorrelationID != "" {
		message.CorrelationID = &input.CorrelationID
	}

	if hasImage {
		url, err := Media.Upload(c.UserContext(), media.FolderMessages, upload)
		if err != nil {
			return mediaFailure(c, err)
		}
		message.Image = url
	}

	if err := database.Postgres.Create(message).Error; err != nil {
		// A concurrent retry may have stored the same correlation id first.
		if input.CorrelationID != "" {
			if existing, lookupErr := findByCorrelation(me, input.CorrelationID); lookupErr == nil {
				return sent(c, existing, true)
			}
		}
		log.Printf("store message %d->%d: %v", me, receiverID, err)
		return internalError(c)
	}

	record := message.Record()
	if err := event.EmitJSON(c.UserContext(), event.QueueChat, event.ActionMessageCreated, record); err != nil {
		log.Printf("publish message %s: %v", record.ID, err)
	}

	return sent(c, message, false)
}

// MessengerMessageImage serves images kept by the database media store.
func MessengerMessageImage(c *fiber.Ctx) error {
	if Images == nil {
		return failure(c, fiber.StatusNotFound, "Image not found")
	}

	data, contentType, err := Images.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure(c, fiber.StatusNotFound, "Image not found")
		}
		log.Printf("load image %s: %v", c.Params("id"), err)
		return internalError(c)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}

var errCorrelationTaken = errors.New("correlation id belongs to another sender")

func findByCorrelation(senderID uint, correlationID string) (*model.Message, error) {
	existing := new(model.Message)
	if err := database.Postgres.
		Where("correlation_id = ?", correlationID).
		First(existing).Error; err != nil {
		return nil, err
	}
	if existing.SenderID != senderID {
		return nil, errCorrelationTaken
	}
	return existing, nil
}

func duplicateFailure(c *fiber.Ctx, err error) error {
	if errors.Is(err, errCorrelationTaken) {
		return failure(c, fiber.StatusConflict, "Correlation id already in use")
	}
	log.Printf("correlation lookup: %v", err)
	return internalError(c)
}

func sent(c *fiber.Ctx, message *model.Message, duplicate bool) error {
	metrics.MessagesSent.WithLabelValues(strconv.FormatBool(duplicate)).Inc()

	status := fiber.StatusCreated
	if duplicate {
		status = fiber.StatusOK
	}
	return success(c, status, fiber.Map{
		"message":   message.Record(),
		"duplicate": duplicate,
	})
}

// messageImage reads the image from a multipart file or a data URL and checks it.
func messageImage(c *fiber.Ctx, input *MessengerSendInput) (media.Upload, bool, error) {
	maxBytes := mediaMaxBytes()

	var upload media.Upload
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxBytes {
			return upload, false, media.ErrTooLarge
		}
		f, err := file.Open()
		if err != nil {
			return upload, false, err
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			return upload, false, err
		}
		upload = media.Upload{ContentType: file.Header.Get(fiber.HeaderContentType), Data: data}
	} else if input.Image != "" {
		upload, err = media.FromDataURL(input.Image)
		if err != nil {
			return upload, false, err
		}
	} else {
		return upload, false, nil
	}

	if err := media.Check(upload, maxBytes); err != nil {
		return upload, false, err
	}
	return upload, true, nil
}

func mediaFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return failure(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image size should be at most %s", humanize.Bytes(uint64(mediaMaxBytes()))))
	case errors.Is(err, media.ErrNotImage):
		return failure(c, fiber.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, media.ErrBadDataURL):
		return failure(c, fiber.StatusBadRequest, "Invalid image data format")
	}
	log.Printf("media: %v", err)
	return failure(c, fiber.StatusInternalServerError, "Image upload failed")
}
