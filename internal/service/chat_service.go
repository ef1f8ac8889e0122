package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"literary-character-ai/backend/ai"
	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/repository"
	apperrors "literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "literary-character-ai/backend/internal/service"

// Error codes and client-facing messages of the chat flow
const (
	CodeMissingFields       = "MISSING_FIELDS"
	CodeCharacterNotFound   = "CHARACTER_NOT_FOUND"
	CodeChatUnavailable     = "CHAT_UNAVAILABLE"
	CodeChatRateLimited     = "CHAT_RATE_LIMITED"
	CodeChatConnectionError = "CHAT_CONNECTION_ERROR"
	CodeChatAuthFailed      = "CHAT_AUTH_FAILED"
	CodeChatAPIError        = "CHAT_API_ERROR"
	CodeChatUnexpected      = "CHAT_UNEXPECTED_ERROR"

	msgMissingFields     = "Missing required fields: character_id or message"
	msgCharacterNotFound = "Character not found"
	msgChatUnavailable   = "Chat service configuration error. Please contact support."
	msgRateLimited       = "Chat service is busy. Please try again later."
	msgConnection        = "Could not connect to the chat service. Please check your connection and try again."
	msgAuthFailed        = "Chat service authentication failed. Please contact support."
	msgAPIErrorPrefix    = "Chat service API error: "
	msgUnexpected        = "An unexpected error occurred while communicating with the chat service."
)

// ChatConfig holds the generation parameters used for every turn
type ChatConfig struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	HistoryWindow int
}

// ChatRequest is one user turn
type ChatRequest struct {
	CharacterID uint   `json:"character_id"`
	Message     string `json:"message"`
	StartNew    bool   `json:"start_new"`
}

// ChatResult is the character's reply. Response is empty when the model
// produced no text.
type ChatResult struct {
	Response string `json:"response,omitempty"`
}

// ChatService runs a chat turn end to end: it resolves the conversation,
// stores the user message, asks the model and stores the reply
type ChatService struct {
	characters    *repository.CharacterRepository
	conversations *repository.ConversationRepository
	completer     ai.Completer
	cfg           ChatConfig
	logger        *logger.Logger

	tracer   trace.Tracer
	turns    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewChatService creates the chat service. A nil completer means the LLM
// gateway could not be built, and every turn fails as unavailable.
func NewChatService(
	characters *repository.CharacterRepository,
	conversations *repository.ConversationRepository,
	completer ai.Completer,
	cfg ChatConfig,
	log *logger.Logger,
) *ChatService {
	meter := otel.Meter(instrumentationName)
	turns, _ := meter.Int64Counter("chat_turns_total",
		metric.WithDescription("Chat turns handled, by outcome"))
	duration, _ := meter.Float64Histogram("llm_request_duration_seconds",
		metric.WithDescription("Latency of LLM completion calls"),
		metric.WithUnit("s"))

	return &ChatService{
		characters:    characters,
		conversations: conversations,
		completer:     completer,
		cfg:           cfg,
		logger:        log,
		tracer:        otel.Tracer(instrumentationName),
		turns:         turns,
		duration:      duration,
	}
}

// Available reports whether an LLM gateway is configured
func (s *ChatService) Available() bool {
	return s.completer != nil
}

// Chat handles one turn for userID. Errors are *apperrors.AppError values
// carrying the status and client-safe message for the failure.
func (s *ChatService) Chat(ctx context.Context, userID uint, req ChatRequest) (*ChatResult, error) {
	ctx, span := s.tracer.Start(ctx, "ChatService.Chat", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("character.id", int64(req.CharacterID)),
		attribute.Bool("chat.start_new", req.StartNew),
	))
	defer span.End()

	result, err := s.chat(ctx, userID, req)

	outcome := "ok"
	if err != nil {
		outcome = apperrors.GetErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return result, err
}

func (s *ChatService) chat(ctx context.Context, userID uint, req ChatRequest) (*ChatResult, error) {
	log := s.logger.With("user_id", userID, "character_id", req.CharacterID)

	if req.CharacterID == 0 || req.Message == "" {
		return nil, apperrors.NewBadRequestError(CodeMissingFields, msgMissingFields)
	}

	if s.completer == nil {
		log.Error("Chat requested but the LLM gateway is not configured")
		return nil, apperrors.NewServiceUnavailableError(CodeChatUnavailable, msgChatUnavailable)
	}

	// An accepted turn runs to completion even if the caller disconnects, so a
	// generated reply is always stored. The provider call stays bounded by the
	// gateway's client timeout.
	ctx = context.WithoutCancel(ctx)

	character, err := s.characters.Get(ctx, req.CharacterID)
	if err != nil {
		return nil, s.storageError(err, "resolve character")
	}

	conv, created, err := s.conversations.GetOrCreate(ctx, userID, character.ID)
	if err != nil {
		return nil, s.storageError(err, "get or create conversation")
	}
	log = log.With("conversation_id", conv.ID)

	if req.StartNew && !created {
		if err := s.conversations.ClearMessages(ctx, conv.ID); err != nil {
			return nil, s.storageError(err, "reset conversation")
		}
		log.Info("Conversation reset by request")
		created = true
	}

	if _, err := s.conversations.AppendMessage(ctx, conv.ID, req.Message, true); err != nil {
		return nil, s.storageError(err, "save user message")
	}

	var history []models.ChatMessage
	if !created {
		history, err = s.conversations.RecentMessages(ctx, conv.ID, true, s.cfg.HistoryWindow)
		if err != nil {
			return nil, s.storageError(err, "load history")
		}
	}

	prompt := ai.BuildPrompt(personaOf(character), turnsOf(history), req.Message)

	start := time.Now()
	reply, err := s.completer.Complete(ctx, prompt, s.cfg.Model, s.cfg.Temperature, s.cfg.MaxTokens)
	s.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("kind", completionKind(err))))
	if err != nil {
		log.LogError(err, "LLM completion failed", "history_len", len(history))
		return nil, mapGatewayError(err)
	}

	if reply == "" {
		log.Warn("LLM returned no text, nothing saved for the character")
		return &ChatResult{}, nil
	}

	if _, err := s.conversations.AppendMessage(ctx, conv.ID, reply, false); err != nil {
		return nil, s.storageError(err, "save character message")
	}

	log.Debug("Chat turn completed", "history_len", len(history), "reply_len", len(reply))
	return &ChatResult{Response: reply}, nil
}

// storageError maps repository failures to client errors. Anything other
// than a missing character is internal and only the log sees the cause.
func (s *ChatService) storageError(err error, op string) error {
	if errors.Is(err, repository.ErrCharacterNotFound) {
		return apperrors.NewNotFoundError(CodeCharacterNotFound, msgCharacterNotFound)
	}
	s.logger.LogError(err, "Chat storage failure", "op", op)
	return apperrors.NewInternalServerError("INTERNAL_ERROR", apperrors.GenericInternalMessage).WithCause(err)
}

// mapGatewayError turns a completion failure into the client-facing error
// for its kind
func mapGatewayError(err error) *apperrors.AppError {
	var gwErr *ai.GatewayError
	if !errors.As(err, &gwErr) {
		return apperrors.NewInternalServerError(CodeChatUnexpected, msgUnexpected).WithCause(err)
	}

	switch gwErr.Kind {
	case ai.KindRateLimited:
		appErr := apperrors.NewTooManyRequestsError(CodeChatRateLimited, msgRateLimited).WithCause(err)
		if gwErr.RetryAfter > 0 {
			appErr.WithDetails(map[string]any{"retry_after_seconds": int(gwErr.RetryAfter.Seconds())})
		}
		return appErr
	case ai.KindConnection:
		return apperrors.NewGatewayTimeoutError(CodeChatConnectionError, msgConnection).WithCause(err)
	case ai.KindAuthentication:
		return apperrors.NewUnauthorizedError(CodeChatAuthFailed, msgAuthFailed).WithCause(err)
	case ai.KindAPI:
		msg := gwErr.Message
		if msg == "" {
			msg = http.StatusText(gwErr.StatusCode)
		}
		return apperrors.NewServiceUnavailableError(CodeChatAPIError, msgAPIErrorPrefix+msg).WithCause(err)
	default:
		return apperrors.NewInternalServerError(CodeChatUnexpected, msgUnexpected).WithCause(err)
	}
}

func completionKind(err error) string {
	if err == nil {
		return "ok"
	}
	return ai.KindOf(err).String()
}

func personaOf(c *models.Character) ai.Persona {
	return ai.Persona{
		Name:        c.Name,
		Book:        c.Book,
		Author:      c.Author,
		Description: c.Description,
	}
}

func turnsOf(msgs []models.ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = ai.Turn{Text: m.MessageText, FromUser: m.IsUserMessage}
	}
	return turns
}
