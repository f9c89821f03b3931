package publisher

import (
	"context"
	"encoding/base64"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// RedisPublisher implements Publisher using Redis streams
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamCount     int
	streamMaxLength int
	next            atomic.Uint64
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return newRedisPublisher(client, streamPrefix, streamCount, streamMaxLength)
}

func newRedisPublisher(client *redis.Client, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	if streamCount < 1 {
		streamCount = 1
	}
	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return crawlerrors.NewPublisher("redis", "ping failed", err)
	}
	return nil
}

// StreamName returns the name of stream i, e.g. catalog:0
func (p *RedisPublisher) StreamName(i int) string {
	return p.streamPrefix + ":" + strconv.Itoa(i)
}

// Publish publishes a message to a Redis stream.
// The message is base64 encoded before publishing. Streams are used round-robin,
// so with streamCount 4 messages go to prefix:0 ~ prefix:3.
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	n := p.next.Add(1) - 1
	stream := p.StreamName(int(n % uint64(p.streamCount)))

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
	if err != nil {
		return crawlerrors.NewPublisher("redis", "XADD to "+stream+" failed", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	for i := 0; i < p.streamCount; i++ {
		stream := p.StreamName(i)
		if err := p.client.XTrimMaxLen(ctx, stream, int64(p.streamMaxLength)).Err(); err != nil {
			return crawlerrors.NewPublisher("redis", "XTRIM of "+stream+" failed", err)
		}
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
