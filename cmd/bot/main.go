package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"thermite-server/internal/game"
	"thermite-server/internal/protocol"
)

const (
	bombChance   = 0.05
	pingInterval = 2 * time.Second
)

var errMatchEnded = errors.New("match ended")

func getEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverURL := getEnvDefault("SERVER_URL", "ws://localhost:8080/ws")
	botCountStr := getEnvDefault("BOT_COUNT", "4")
	botCount, err := strconv.Atoi(botCountStr)
	if err != nil || botCount <= 0 {
		slog.Error("invalid BOT_COUNT", "value", botCountStr)
		os.Exit(1)
	}

	slog.Info("starting bots", "count", botCount, "server", serverURL)

	var wg sync.WaitGroup
	for i := range botCount {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runBot(ctx, serverURL, id)
		}(i)
	}

	wg.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, id int) {
	logger := slog.With("botID", id)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, logger)
		if errors.Is(err, errMatchEnded) {
			logger.Info("match ended")
			return
		}
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			time.Sleep(2 * time.Second)
		}
	}
}

// botState is shared between the read loop and the decision loop
type botState struct {
	playerID atomic.Pointer[uuid.UUID]
	tickMs   atomic.Uint64
	alive    atomic.Bool
	acks     atomic.Uint64
	rejects  atomic.Uint64
}

func botSession(ctx context.Context, serverURL string, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	logger.Info("connected")

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var st botState
	st.alive.Store(true)

	go func() {
		cancel(readLoop(ctx, conn, &st, logger))
	}()

	var seq uint64
	lastPing := time.Now()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
				return cause
			}
			conn.Close(websocket.StatusNormalClosure, "shutdown")
			return nil
		case <-ticker.C:
			if st.playerID.Load() == nil || !st.alive.Load() {
				continue
			}
			if ms := st.tickMs.Load(); ms > 0 {
				ticker.Reset(time.Duration(ms) * time.Millisecond)
			}

			seq++
			var msg protocol.ClientMessage = protocol.Move{
				Direction: game.Directions[rand.IntN(len(game.Directions))],
				Sequence:  seq,
			}
			if rand.Float64() < bombChance {
				msg = protocol.PlaceBomb{Sequence: seq}
			}
			if time.Since(lastPing) > pingInterval {
				lastPing = time.Now()
				if err := send(ctx, conn, protocol.Ping{Timestamp: uint64(time.Now().UnixMilli())}); err != nil {
					return err
				}
			}
			if err := send(ctx, conn, msg); err != nil {
				return err
			}
		}
	}
}

func send(ctx context.Context, conn *websocket.Conn, msg protocol.ClientMessage) error {
	data, err := protocol.EncodeClient(msg)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageBinary, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, st *botState, logger *slog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			logger.Warn("undecodable frame", "err", err)
			continue
		}

		switch m := msg.(type) {
		case protocol.Welcome:
			id := m.PlayerID
			st.playerID.Store(&id)
			st.tickMs.Store(m.TickRateMs)
			logger.Info("joined", "playerID", id, "tickMs", m.TickRateMs)
		case protocol.CommandAck:
			if m.Success {
				st.acks.Add(1)
			} else {
				st.rejects.Add(1)
			}
		case protocol.PlayerDied:
			if id := st.playerID.Load(); id != nil && *id == m.PlayerID {
				st.alive.Store(false)
				logger.Info("died", "killer", m.KillerID, "position", m.Position.String())
			}
		case protocol.Pong:
			rtt := time.Now().UnixMilli() - int64(m.Timestamp)
			logger.Debug("pong", "rttMs", rtt)
		case protocol.MatchEnded:
			logger.Info("match over", "reason", m.Reason, "acks", st.acks.Load(), "rejects", st.rejects.Load())
			return errMatchEnded
		case protocol.Error:
			return fmt.Errorf("server error: %s", m.Message)
		}
	}
}
