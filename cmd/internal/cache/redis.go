package cache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const redisDialTimeout = 5 * time.Second

// RedisBackend speaks the RESP protocol directly over one pooled connection.
// The deployment runs a single small Redis next to the service, so a full
// client library would buy nothing over GET/SET/DEL here.
type RedisBackend struct {
	addr   string
	dialer net.Dialer

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// NewRedisBackend creates a backend for addr ("host:port").
func NewRedisBackend(addr string) *RedisBackend {
	return &RedisBackend{addr: addr}
}

// Get issues GET key. A nil bulk reply reads as a miss.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	reply, err := b.do(ctx, "GET", key)
	if err != nil {
		return nil, false, err
	}
	if reply.isNil {
		return nil, false, nil
	}
	return []byte(reply.text), true, nil
}

// Set issues SET key value PX ttl.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{"SET", key, string(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	_, err := b.do(ctx, args...)
	return err
}

// Delete issues DEL key.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	_, err := b.do(ctx, "DEL", key)
	return err
}

// Close tears down the pooled connection.
func (b *RedisBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reset()
}

type redisReply struct {
	kind  byte
	text  string
	isNil bool
}

func (b *RedisBackend) do(ctx context.Context, args ...string) (redisReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureConn(ctx); err != nil {
		return redisReply{}, err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(redisDialTimeout)
	}
	if err := b.conn.SetDeadline(deadline); err != nil {
		_ = b.reset()
		return redisReply{}, err
	}

	if err := writeCommand(b.writer, args); err != nil {
		_ = b.reset()
		return redisReply{}, err
	}
	if err := b.writer.Flush(); err != nil {
		_ = b.reset()
		return redisReply{}, err
	}

	reply, err := readReply(b.reader)
	if err != nil {
		_ = b.reset()
		return redisReply{}, err
	}
	if reply.kind == '-' {
		return redisReply{}, fmt.Errorf("redis error: %s", reply.text)
	}

	_ = b.conn.SetDeadline(time.Time{})
	return reply, nil
}

func (b *RedisBackend) ensureConn(ctx context.Context) error {
	if b.conn != nil {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	conn, err := b.dialer.DialContext(dialCtx, "tcp", b.addr)
	if err != nil {
		return fmt.Errorf("redis dial: %w", err)
	}

	b.conn = conn
	b.reader = bufio.NewReader(conn)
	b.writer = bufio.NewWriter(conn)
	return nil
}

func (b *RedisBackend) reset() error {
	if b.conn != nil {
		err := b.conn.Close()
		b.conn = nil
		b.reader = nil
		b.writer = nil
		return err
	}
	return nil
}

func writeCommand(w *bufio.Writer, args []string) error {
	if _, err := fmt.Fprintf(w, "*%d\r\n", len(args)); err != nil {
		return fmt.Errorf("redis write: %w", err)
	}
	for _, arg := range args {
		if _, err := fmt.Fprintf(w, "$%d\r\n%s\r\n", len(arg), arg); err != nil {
			return fmt.Errorf("redis write: %w", err)
		}
	}
	return nil
}

func readReply(r *bufio.Reader) (redisReply, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return redisReply{}, fmt.Errorf("redis read: %w", err)
	}

	switch prefix {
	case '+', '-', ':':
		line, err := readLine(r)
		if err != nil {
			return redisReply{}, err
		}
		return redisReply{kind: prefix, text: line}, nil
	case '$':
		line, err := readLine(r)
		if err != nil {
			return redisReply{}, err
		}
		length, err := strconv.Atoi(line)
		if err != nil {
			return redisReply{}, fmt.Errorf("redis bulk length: %w", err)
		}
		if length == -1 {
			return redisReply{kind: '$', isNil: true}, nil
		}
		buf := make([]byte, length+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return redisReply{}, fmt.Errorf("redis bulk read: %w", err)
		}
		return redisReply{kind: '$', text: string(buf[:length])}, nil
	default:
		// GET/SET/DEL never produce array replies
		return redisReply{}, fmt.Errorf("unexpected redis reply type: %q", prefix)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("redis read line: %w", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}
