package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"chatter-service/model"

	"github.com/gofiber/fiber/v2"
)

// REST talks to the chat API over HTTP.
type REST struct {
	BaseURL string
	// Token is the access JWT, sent as a bearer token.
	Token   string
	Timeout time.Duration
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a non-success response from the server.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type sendBody struct {
	Text          string `json:"text,omitempty"`
	Image         string `json:"image,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type sendData struct {
	Message   model.MessageRecord `json:"message"`
	Duplicate bool                `json:"duplicate"`
}

func (r *REST) SendMessage(ctx context.Context, counterpart string, in SendInput) (SendResult, error) {
	a := fiber.Post(r.url("/v1/conversations/%s/messages", counterpart))
	a.JSON(sendBody{Text: in.Text, Image: in.Image, CorrelationID: in.CorrelationID})

	var data sendData
	if err := r.do(ctx, a, &data); err != nil {
		return SendResult{}, err
	}
	return SendResult{Record: data.Message, Duplicate: data.Duplicate}, nil
}

func (r *REST) Conversation(ctx context.Context, counterpart string) ([]model.MessageRecord, error) {
	var messages []model.MessageRecord
	if err := r.do(ctx, fiber.Get(r.url("/v1/conversations/%s/messages", counterpart)), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *REST) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.do(ctx, fiber.Get(r.url("/v1/users")), &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *REST) url(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(arg))
	}
	return strings.TrimRight(r.BaseURL, "/") + fmt.Sprintf(format, escaped...)
}

func (r *REST) do(ctx context.Context, a *fiber.Agent, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := r.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout == 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	if r.Token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+r.Token)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response (%d): %w", code, err)
	}
	if code >= fiber.StatusBadRequest || env.Status != "success" {
		return &APIError{Code: code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
