package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"chatter-service/config"

	"github.com/redis/go-redis/v9"
)

// Redis databases by number: 0 holds refresh tokens, 1 backs the socket.io adapter.
var Redis = make(map[int]*redis.Client)

const (
	RedisTokens = 0
	RedisSocket = 1
)

func RedisConnect() {
	for _, db := range strings.Split(config.Default("REDIS_DB", "0,1"), ",") {
		dbNumber, err := strconv.Atoi(strings.TrimSpace(db))
		if err != nil {
			panic(fmt.Sprintf("invalid REDIS_DB entry %q", db))
		}

		options := &redis.Options{
			Addr: fmt.Sprintf(
				"%s:%s",
				config.Config("REDIS_HOST"),
				config.Config("REDIS_PORT"),
			),
			Password: config.Config("REDIS_PASSWORD"),
			DB:       dbNumber,
		}

		Redis[dbNumber] = redis.NewClient(options)
		if err := Redis[dbNumber].Ping(context.Background()).Err(); err != nil {
			panic(fmt.Sprintf("failed to ping redis db %d: %v", dbNumber, err))
		}
	}

	log.Printf("Connections opened to Redis")
}

var ErrNoTokenStore = errors.New("refresh token store is not connected")

// SaveRefreshToken keeps the single valid refresh token of a user.
// Without a token store it does nothing, so renewals are refused.
func SaveRefreshToken(ctx context.Context, userID string, token string) error {
	client, ok := Redis[RedisTokens]
	if !ok {
		return nil
	}
	return client.Set(ctx, userID, token, 0).Err()
}

func RefreshToken(ctx context.Context, userID string) (string, error) {
	client, ok := Redis[RedisTokens]
	if !ok {
		return "", ErrNoTokenStore
	}
	return client.Get(ctx, userID).Result()
}

func DeleteRefreshToken(ctx context.Context, userID string) error {
	client, ok := Redis[RedisTokens]
	if !ok {
		return nil
	}
	return client.Del(ctx, userID).Err()
}

func RedisClose() {
	for db, client := range Redis {
		if err := client.Close(); err != nil {
			log.Printf("closing redis db %d: %v", db, err)
		}
	}
}
