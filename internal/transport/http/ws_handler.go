package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

type WSHandler struct {
	games    *app.GameService
	boards   *app.LeaderboardService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService, boards *app.LeaderboardService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		games:  games,
		boards: boards,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	WordListID string `json:"wordListId"`
	Difficulty string `json:"difficulty"`
}

type cellPayload struct {
	Cell int `json:"cell"`
}

type markPayload struct {
	Correct bool `json:"correct"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type confirmPayload struct {
	Match bool `json:"match"`
}

type speakPayload struct {
	Word string `json:"word"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// wsSpeaker pushes "speak" events to the client, which reads the word aloud.
// It may be invoked after the connection closed (another connection of the
// same player can reuse the session), so sends are guarded and never block.
type wsSpeaker struct {
	mu     sync.Mutex
	closed bool
	send   chan<- outboundMessage[any]
}

func (s *wsSpeaker) Speak(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- outboundMessage[any]{Type: "speak", Payload: speakPayload{Word: word}}:
	default:
	}
}

func (s *wsSpeaker) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	if displayName == "" {
		displayName = userID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel, err := h.boards.Subscribe(ctx, "")
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	// an unfinished game started here is abandoned with the connection
	connID := uuid.NewString()
	defer h.games.Abandon(context.Background(), userID, connID)

	send := make(chan outboundMessage[any], 16)
	speaker := &wsSpeaker{send: send}
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	replyErr := func(err error) {
		reply("error", errorPayload{Message: err.Error()})
	}
	replyBoard := func(view game.TeamView, err error) {
		if err != nil {
			replyErr(err)
			return
		}
		reply("teamBoard", view)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid start payload"})
				continue
			}
			view, err := h.games.Start(ctx, app.StartRequest{
				UserID:      userID,
				DisplayName: displayName,
				WordListID:  payload.WordListID,
				Difficulty:  payload.Difficulty,
				Owner:       connID,
			}, speaker)
			if err != nil {
				replyErr(err)
				continue
			}
			reply("round", view)
		case "answer":
			var payload answerPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			res, err := h.games.Answer(ctx, userID, payload.Answer)
			h.replyAnswer(reply, replyErr, res, err)
		case "confirm":
			var payload confirmPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid confirm payload"})
				continue
			}
			res, err := h.games.Confirm(ctx, userID, payload.Match)
			h.replyAnswer(reply, replyErr, res, err)
		case "next":
			view, err := h.games.Next(ctx, userID)
			if err != nil {
				replyErr(err)
				continue
			}
			reply("round", view)
		case "speak":
			if err := h.games.Speak(ctx, userID); err != nil {
				replyErr(err)
			}
		case "stats":
			stats, err := h.games.Stats(ctx, userID)
			if err != nil {
				replyErr(err)
				continue
			}
			reply("stats", stats)
		case "finish":
			res, err := h.games.Finish(ctx, userID)
			if err != nil && !errors.Is(err, domain.ErrPersistence) {
				replyErr(err)
				continue
			}
			reply("finished", res)
			if err != nil {
				reply("warning", errorPayload{Message: "score could not be saved"})
			}
		case "teamStart":
			var payload startPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid teamStart payload"})
				continue
			}
			view, err := h.games.StartTeam(ctx, app.StartRequest{
				UserID:      userID,
				DisplayName: displayName,
				WordListID:  payload.WordListID,
				Owner:       connID,
			}, speaker)
			replyBoard(view, err)
		case "teamSelect":
			var payload cellPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid teamSelect payload"})
				continue
			}
			view, err := h.games.SelectCell(ctx, userID, payload.Cell)
			replyBoard(view, err)
		case "teamMark":
			var payload markPayload
			if err := decodePayload(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid teamMark payload"})
				continue
			}
			view, err := h.games.MarkCell(ctx, userID, payload.Correct)
			replyBoard(view, err)
		case "teamSpeak":
			if err := h.games.SpeakCell(ctx, userID); err != nil {
				replyErr(err)
			}
		case "teamReplay":
			view, err := h.games.ReplayTeam(ctx, userID)
			replyBoard(view, err)
		case "teamNewRound":
			view, err := h.games.NewTeamRound(ctx, userID)
			replyBoard(view, err)
		case "reset":
			h.games.Reset(ctx, userID)
			reply("round", struct {
				Started bool `json:"started"`
			}{})
		default:
			reply("error", errorPayload{Message: "unsupported message type"})
		}
	}

	speaker.close()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) replyAnswer(reply func(string, any), replyErr func(error), res app.AnswerResult, err error) {
	if err != nil {
		replyErr(err)
		return
	}
	reply("answerResult", res)
	if !res.Persisted {
		reply("warning", errorPayload{Message: "progress could not be saved"})
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
