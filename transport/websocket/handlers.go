package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/usecase"
)

const (
	errMsgPlayerRequired = "player is required"
	errMsgAlreadyOnline  = "already connected"
	errMsgNotConnected   = "connect first"
	errMsgAlreadyInGame  = "already in game"
	errMsgNotImplemented = "not implemented"
	errMsgUnknownDir     = "unknown direction"
	errMsgInternal       = "internal error"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, errMsgPlayerRequired)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		that.sendError(c, errMsgPlayerRequired)
		return nil
	}

	player := *payloadReq.Player
	if player.ID == "" {
		player.ID = uuid.NewString()
	}

	if !that.register(player.ID, c) {
		log.Warn("player id is held by another connection", "player", player.ID)
		that.sendError(c, errMsgAlreadyOnline)

		return nil
	}

	if previous, ok := c.identity(); ok && previous.ID != player.ID && that.unregister(previous.ID, c) {
		that.games.Withdraw(ctx, previous.ID)
	}

	c.identify(player)

	if err := that.sendTo(c, actionConnect, Payload{Player: &player}); err != nil {
		return err
	}

	log.Info("successfully connected player", "player", player.ID)

	return nil
}

func (that *Server) handlePlay(ctx context.Context, _ *Message, c *client) error {
	log := that.logger.With("method", "handlePlay")

	player, ok := that.requireIdentity(c)
	if !ok {
		return nil
	}

	result, err := that.games.RequestMatch(ctx, player)
	if errors.Is(err, apperror.ErrAlreadyInGame) {
		that.sendError(c, errMsgAlreadyInGame)
		return nil
	}

	if err != nil {
		that.sendError(c, errMsgInternal)
		return fmt.Errorf("failed to request match: %w", err)
	}

	if result.Status == usecase.MatchWaiting {
		return that.sendTo(c, actionWaiting, Payload{Player: &player})
	}

	log.Info("game started", "session", result.Session.ID)

	that.broadcast(actionStarted, result.Turn)

	return nil
}

func (that *Server) handleMove(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleMove")

	player, ok := that.requireIdentity(c)
	if !ok {
		return nil
	}

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.sendError(c, errMsgUnknownDir)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	dir, err := entity.ParseDirection(payloadReq.Direction)
	if err != nil {
		that.sendError(c, errMsgUnknownDir)
		return nil
	}

	result, err := that.games.Navigate(ctx, player.ID, dir)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		log.Debug("move outside of a game", "player", player.ID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	that.broadcast(actionTurn, result)

	return nil
}

func (that *Server) handleSend(ctx context.Context, _ *Message, c *client) error {
	log := that.logger.With("method", "handleSend")

	player, ok := that.requireIdentity(c)
	if !ok {
		return nil
	}

	result, err := that.games.Commit(ctx, player.ID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		log.Debug("send outside of a game", "player", player.ID)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if result.IsFinished() {
		log.Info("game finished", "session", result.SessionID, "status", result.Status.String())
		that.broadcast(actionFinished, result)

		return nil
	}

	that.broadcast(actionTurn, result)

	return nil
}

func (that *Server) handleStop(ctx context.Context, _ *Message, c *client) error {
	player, ok := that.requireIdentity(c)
	if !ok {
		return nil
	}

	if err := that.games.Stop(ctx, player.ID); errors.Is(err, apperror.ErrNotImplemented) {
		that.sendError(c, errMsgNotImplemented)
	}

	return nil
}

// handleSpectate subscribes the socket to the public board of every game.
func (that *Server) handleSpectate(_ context.Context, _ *Message, c *client) error {
	that.spectatorsMutex.Lock()
	that.spectators[c] = struct{}{}
	that.spectatorsMutex.Unlock()

	return that.sendTo(c, actionSpectate, Payload{})
}

func (that *Server) requireIdentity(c *client) (entity.Participant, bool) {
	player, ok := c.identity()
	if !ok {
		that.sendError(c, errMsgNotConnected)
	}

	return player, ok
}

// broadcast sends every render of the result to its participant and the public
// board to spectators. Ignored results send nothing. Frames of two requests racing
// on one game may arrive in either order; GameView.Seq tells them apart.
func (that *Server) broadcast(action string, result *usecase.TurnResult) {
	log := that.logger.With("method", "broadcast", "action", action)

	if result.Ignored != nil {
		log.Debug("request ignored", "session", result.SessionID, "reason", result.Ignored)
		return
	}

	for _, render := range result.Renders {
		c, ok := that.lookup(render.ParticipantID)
		if !ok {
			log.Warn("connection not found for player", "player", render.ParticipantID)
			continue
		}

		payload, err := renderPayload(result, render)
		if err != nil {
			log.Error("failed to build render", "error", err)
			continue
		}

		if err = that.sendTo(c, action, payload); err != nil {
			log.Error("failed to send game update", "player", render.ParticipantID, "error", err)
		}
	}

	if result.Spectator != nil {
		that.showBoard(result)
	}
}

func (that *Server) showBoard(result *usecase.TurnResult) {
	log := that.logger.With("method", "showBoard", "session", result.SessionID)

	watchers := that.watchers()
	if len(watchers) == 0 {
		return
	}

	payload, err := renderPayload(result, *result.Spectator)
	if err != nil {
		log.Error("failed to build board", "error", err)
		return
	}

	for _, c := range watchers {
		if err = that.sendTo(c, actionBoard, payload); err != nil {
			log.Error("failed to send board", "error", err)
		}
	}
}

func (that *Server) sendTo(c *client, action string, payload Payload) error {
	msg, err := encodeMessage(action, payload)
	if err != nil {
		return err
	}

	return c.write(msg)
}

func (that *Server) sendError(c *client, text string) {
	log := that.logger.With("method", "sendError")

	if err := that.sendTo(c, actionError, Payload{Error: text}); err != nil {
		log.Error("failed to send error", "error", err)
	}
}
