package http

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairchat/pairchat-server/internal/core"
	"github.com/pairchat/pairchat-server/internal/proto"
)

// WSHandler upgrades connections and drives a chat session per socket.
type WSHandler struct {
	deps   core.Deps
	logger *zerolog.Logger
}

func NewWSHandler(deps core.Deps, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{deps: deps, logger: logger}
}

func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx := c.Request.Context()
	token := c.Query("token")
	friendUsername := c.Query("friend_username")

	sess := core.NewSession(uuid.NewString(), h.deps)
	if err := sess.Connect(ctx, token, friendUsername); err != nil {
		var rej *core.RejectError
		if errors.As(err, &rej) {
			_ = wsjson.Write(ctx, conn, proto.ErrorFrame{Error: rej.Message, Code: rej.Code})
			conn.Close(websocket.StatusCode(rej.Code), rej.Message)
			return
		}
		h.logger.Error().Err(err).Msg("session connect failed")
		conn.Close(websocket.StatusCode(core.CloseInternalError), "internal error")
		return
	}
	defer sess.Disconnect(context.Background())

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(loopCtx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(loopCtx, conn, sess)
	}()

	err = <-errCh
	if err != nil && !isClosedErr(err) {
		h.logger.Debug().Err(err).Str("session", sess.ID()).Msg("session ended")
	}

	// Stop the surviving loop and wait for it before Disconnect tears the
	// session down; Receive must never race the teardown.
	cancel()
	conn.Close(websocket.StatusNormalClosure, "")
	<-errCh
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if err := sess.Receive(ctx, data); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sess.Events():
			if !ok {
				return nil
			}
			frame := frameFromEvent(ev)
			if frame == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				return err
			}
		}
	}
}

func isClosedErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}
