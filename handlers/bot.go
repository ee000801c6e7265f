package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"

	"pmo-bot/commands"
	"pmo-bot/middleware"
	"pmo-bot/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TranscriptStore records what was said in each conversation.
type TranscriptStore interface {
	UserLookup
	AppendTranscript(entries ...*models.TranscriptEntry) error
	ConversationTranscript(conversationID string, limit int) ([]models.TranscriptEntry, error)
}

// BotHandler is the transport adapter around the command engine: it feeds it
// turns, renders what it says, records the transcript and fans replies out to
// websocket subscribers.
type BotHandler struct {
	engine *commands.Engine
	store  TranscriptStore
	hub    *Hub
	bot    models.ChannelAccount
	tracer trace.Tracer
}

func NewBotHandler(engine *commands.Engine, s TranscriptStore, hub *Hub, bot models.ChannelAccount) *BotHandler {
	return &BotHandler{
		engine: engine,
		store:  s,
		hub:    hub,
		bot:    bot,
		tracer: otel.Tracer("pmo-bot/handlers"),
	}
}

// Messages accepts one activity from an authenticated caller.
func (h *BotHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	user, err := h.store.GetUserByID(userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return
	}

	var activity models.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if activity.Conversation.ID == "" {
		http.Error(w, "conversation.id is required", http.StatusBadRequest)
		return
	}

	var reply models.BotReplyPayload
	switch activity.Type {
	case models.ActivityMessage:
		reply = h.processTurn(r.Context(), activity.Conversation.ID, user.Identity(), activity.Text, activity.ID)

	case models.ActivityConversationUpdate:
		var joined []models.Identity
		for _, m := range activity.MembersAdded {
			if m.ID == activity.Recipient.ID || m.ID == h.bot.ID {
				continue
			}
			joined = append(joined, models.Identity{ID: m.ID, Name: m.Name})
		}
		reply = h.ProcessJoin(r.Context(), activity.Conversation.ID, joined)
		if len(reply.Activities) > 0 {
			h.hub.BroadcastToConversation(activity.Conversation.ID, models.WSMessage{Type: models.WSTypeWelcome, Payload: reply})
		}

	default:
		http.Error(w, "Unsupported activity type: "+activity.Type, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.ActivitiesResponse{Kind: reply.Kind, Activities: reply.Activities})
}

// Transcript returns the latest lines of a conversation, oldest first.
func (h *BotHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	if conversationID == "" {
		http.Error(w, "Conversation ID required", http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.store.ConversationTranscript(conversationID, limit)
	if err != nil {
		log.Printf("[BOT] transcript %s: %v", conversationID, err)
		http.Error(w, "Failed to fetch transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// ProcessTurn runs a websocket turn. The reply reaches the sender through the
// conversation fan-out.
func (h *BotHandler) ProcessTurn(ctx context.Context, conversationID string, sender models.Identity, text string) models.BotReplyPayload {
	return h.processTurn(ctx, conversationID, sender, text, "")
}

func (h *BotHandler) processTurn(ctx context.Context, conversationID string, sender models.Identity, text, activityID string) models.BotReplyPayload {
	ctx, span := h.tracer.Start(ctx, "bot.turn", trace.WithAttributes(
		attribute.String("pmo.conversation_id", conversationID),
		attribute.String("pmo.sender_id", sender.ID),
	))
	defer span.End()

	resp := h.safeHandle(span, func() models.Response {
		return h.engine.HandleTurn(text, sender)
	})
	span.SetAttributes(attribute.String("pmo.kind", string(resp.Kind)))
	log.Printf("[BOT] turn conversation=%s sender=%s kind=%s", conversationID, sender.ID, resp.Kind)

	reply := models.BotReplyPayload{
		ConversationID: conversationID,
		Kind:           resp.Kind,
		Activities:     RenderActivities(resp, h.bot, conversationID, activityID),
	}

	inbound := &models.TranscriptEntry{
		ConversationID: conversationID,
		Direction:      models.DirectionInbound,
		SenderID:       sender.ID,
		SenderName:     sender.DisplayName(),
		Content:        text,
	}
	h.record(ctx, append([]*models.TranscriptEntry{inbound}, h.outboundEntries(conversationID, resp)...))

	h.hub.BroadcastToConversation(conversationID, models.WSMessage{Type: models.WSTypeBotReply, Payload: reply})
	return reply
}

// ProcessJoin greets participants who joined a conversation. Nothing is fanned
// out; the caller decides who sees the welcome.
func (h *BotHandler) ProcessJoin(ctx context.Context, conversationID string, joined []models.Identity) models.BotReplyPayload {
	ctx, span := h.tracer.Start(ctx, "bot.participants_joined", trace.WithAttributes(
		attribute.String("pmo.conversation_id", conversationID),
		attribute.Int("pmo.joined", len(joined)),
	))
	defer span.End()

	resp := h.safeHandle(span, func() models.Response {
		return h.engine.HandleParticipantsJoined(joined)
	})
	log.Printf("[BOT] participants joined conversation=%s count=%d", conversationID, len(joined))

	h.record(ctx, h.outboundEntries(conversationID, resp))
	return models.BotReplyPayload{
		ConversationID: conversationID,
		Kind:           resp.Kind,
		Activities:     RenderActivities(resp, h.bot, conversationID, ""),
	}
}

// safeHandle converts a panic inside the engine into the apology reply.
func (h *BotHandler) safeHandle(span trace.Span, fn func() models.Response) (resp models.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic: %v", rec)
			log.Printf("[BOT] turn error: %v\n%s", err, debug.Stack())
			span.RecordError(err)
			span.SetStatus(codes.Error, "turn failed")
			resp = h.engine.Apology()
		}
	}()
	return fn()
}

func (h *BotHandler) outboundEntries(conversationID string, resp models.Response) []*models.TranscriptEntry {
	entries := make([]*models.TranscriptEntry, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		e := &models.TranscriptEntry{
			ConversationID: conversationID,
			Direction:      models.DirectionOutbound,
			SenderID:       h.bot.ID,
			SenderName:     h.bot.Name,
			Kind:           string(resp.Kind),
			Content:        msg.Text,
		}
		if msg.Card != nil {
			e.Content = CardMarkdown(msg.Card)
			if raw, err := json.Marshal(AdaptiveCard(msg.Card)); err == nil {
				e.Attachment = raw
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// record writes transcript rows. Failures are logged and never fail the turn.
func (h *BotHandler) record(ctx context.Context, entries []*models.TranscriptEntry) {
	if err := h.store.AppendTranscript(entries...); err != nil {
		log.Printf("[BOT] transcript write failed: %v", err)
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
