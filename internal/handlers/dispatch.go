package handlers

import (
	"errors"

	"go.uber.org/zap"
	"scribbly/internal/game"
	"scribbly/internal/protocol"
	"scribbly/internal/store"
)

// dispatch applies one inbound envelope. Panics are contained to the
// message that caused them.
func (h *Handler) dispatch(c *Client, env protocol.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("panic handling message",
				zap.String("conn", c.ID),
				zap.String("event", env.Event),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			h.hub.Emit(c.ID, game.EventErrorMessage, game.Notice{Message: "internal error"})
		}
	}()

	h.metrics.MessageReceived(env.Event)

	cmd, err := protocol.Decode(env)
	if err != nil {
		if env.Event == protocol.CmdCreateRoom || env.Event == protocol.CmdJoinRoom {
			h.ack(c, env.ID, "", err)
			return
		}
		h.hub.Emit(c.ID, game.EventErrorMessage, game.Notice{Message: err.Error()})
		return
	}

	switch cmd := cmd.(type) {
	case protocol.CreateRoom:
		room, err := h.store.CreateRoom(c.ID, cmd.Username)
		h.ack(c, env.ID, roomCode(room), err)
	case protocol.JoinRoom:
		room, err := h.store.JoinRoom(c.ID, cmd.Username, cmd.RoomID)
		h.ack(c, env.ID, roomCode(room), err)
	case protocol.RoomCommand:
		h.dispatchRoom(c, cmd)
	}
}

func (h *Handler) dispatchRoom(c *Client, cmd protocol.RoomCommand) {
	code := store.NormalizeCode(cmd.Room())
	room, err := h.store.Resolve(c.ID, code)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		h.hub.Emit(c.ID, game.EventRoomClosed, game.Notice{RoomID: code, Message: "This room no longer exists."})
		return
	case errors.Is(err, store.ErrNotAttached):
		if _, leaving := cmd.(protocol.LeaveRoom); !leaving {
			h.hub.Emit(c.ID, game.EventRequestRejoin, game.Notice{RoomID: code, Message: "Please rejoin the room to continue."})
		}
		return
	case err != nil:
		h.log.Error("failed to resolve room", zap.String("room", code), zap.Error(err))
		return
	}

	switch cmd := cmd.(type) {
	case protocol.StartGame:
		err = room.Start(c.ID, cmd.TotalRounds)
	case protocol.SelectWord:
		err = room.SelectWord(c.ID, cmd.Word)
	case protocol.Draw:
		err = room.Draw(c.ID, cmd.Data)
	case protocol.ClearCanvas:
		err = room.ClearCanvas(c.ID)
	case protocol.ChatMessage:
		err = room.Chat(c.ID, cmd.Text)
	case protocol.Guess:
		err = room.Guess(c.ID, cmd.Text)
	case protocol.LeaveRoom:
		h.store.Disconnect(c.ID)
	}
	if err != nil {
		h.log.Debug("command rejected",
			zap.String("conn", c.ID),
			zap.String("room", code),
			zap.String("event", cmd.Name()),
			zap.Error(err),
		)
	}
}

func (h *Handler) ack(c *Client, requestID, roomID string, err error) {
	ack := protocol.Ack{Success: err == nil, RoomID: roomID}
	if err != nil {
		ack.Error = ackMessage(err)
	}
	h.hub.EmitWithID(c.ID, protocol.EventAck, requestID, ack)
}

// ackMessage strips wrapping context from errors the client should see
func ackMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return store.ErrRoomNotFound.Error()
	default:
		return err.Error()
	}
}

func roomCode(r *game.Room) string {
	if r == nil {
		return ""
	}
	return r.Code
}
