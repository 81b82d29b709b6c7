package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/chat"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/llm"
	"fintrack/internal/ports"
)

const (
	DefaultHistoryLimit = 20

	defaultMaxMessages = 100
	defaultMaxAge      = 30 * 24 * time.Hour
)

var ErrEmptyMessage = errors.New("empty message")

// Retention bounds the stored chat history. Once the history holds more
// than MaxMessages, messages older than MaxAge are pruned.
type Retention struct {
	MaxMessages int
	MaxAge      time.Duration
}

// ChatService runs one chat turn at a time: it routes the message, performs
// the action and records both sides of the conversation.
type ChatService struct {
	mu sync.Mutex

	messages     ports.ChatStore
	transactions *TransactionService
	budgets      *BudgetService

	classifier *chat.Classifier
	budgetP    *chat.BudgetParser
	dates      *chat.DateResolver
	assistant  *chat.Assistant
	converter  *currency.Converter

	retention Retention
	now       func() time.Time
}

type ChatOption func(*ChatService)

func WithRetention(r Retention) ChatOption {
	return func(s *ChatService) {
		if r.MaxMessages > 0 {
			s.retention.MaxMessages = r.MaxMessages
		}
		if r.MaxAge > 0 {
			s.retention.MaxAge = r.MaxAge
		}
	}
}

// WithConverter enables foreign-currency amounts in chat transactions.
func WithConverter(c *currency.Converter) ChatOption {
	return func(s *ChatService) { s.converter = c }
}

func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewChatService(messages ports.ChatStore, transactions *TransactionService, budgets *BudgetService, c llm.Completer, opts ...ChatOption) *ChatService {
	s := &ChatService{
		messages:     messages,
		transactions: transactions,
		budgets:      budgets,
		retention:    Retention{MaxMessages: defaultMaxMessages, MaxAge: defaultMaxAge},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	clock := func() time.Time { return s.now() }
	s.classifier = chat.NewClassifier(c)
	s.budgetP = chat.NewBudgetParser(c, clock)
	s.dates = chat.NewDateResolver(c, clock)
	s.assistant = chat.NewAssistant(c)
	if s.converter == nil {
		s.converter = currency.NewConverter(nil)
	}
	return s
}

// EnsureWelcome seeds an empty history with the welcome message.
func (s *ChatService) EnsureWelcome(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.messages.CountMessages(ctx)
	if err != nil {
		return fmt.Errorf("count messages: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.add(ctx, chat.WelcomeText, false, core.MessageAI, "")
	return err
}

// History returns up to limit of the most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, limit int) ([]core.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	all, err := s.messages.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// Send handles one user message and returns the stored reply.
func (s *ChatService) Send(ctx context.Context, text string) (core.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.ChatMessage{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent := chat.Route(text)
	slog.InfoContext(ctx, "Chat message routed", "intent", intent.String())

	if intent == chat.IntentClearChat {
		if err := s.messages.DeleteAllMessages(ctx); err != nil {
			return core.ChatMessage{}, fmt.Errorf("clear chat: %w", err)
		}
		return s.add(ctx, chat.ChatClearedText, false, core.MessageSystem, "")
	}

	if _, err := s.add(ctx, text, true, core.MessageUser, ""); err != nil {
		return core.ChatMessage{}, err
	}

	var reply, meta string
	switch intent {
	case chat.IntentDeleteAll:
		reply = s.deleteAll(ctx)
	case chat.IntentDeleteRecent:
		reply = s.deleteRecent(ctx)
	case chat.IntentCategories:
		reply = chat.CategoriesText
	case chat.IntentDateSearch:
		reply = s.searchByDate(ctx, text)
	case chat.IntentSetBudget:
		reply = s.setBudget(ctx, text)
	default:
		reply, meta = s.answer(ctx, text)
	}

	msg, err := s.add(ctx, reply, false, core.MessageAI, meta)
	if err != nil {
		return core.ChatMessage{}, err
	}
	s.prune(ctx)
	return msg, nil
}

func (s *ChatService) add(ctx context.Context, text string, isUser bool, t core.MessageType, meta string) (core.ChatMessage, error) {
	m, err := s.messages.AddMessage(ctx, core.ChatMessage{
		Text:      text,
		IsUser:    isUser,
		Timestamp: s.now(),
		Type:      t,
		Metadata:  meta,
	})
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("store chat message: %w", err)
	}
	return m, nil
}

// prune applies the retention policy. Failures are logged only.
func (s *ChatService) prune(ctx context.Context) {
	n, err := s.messages.CountMessages(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to count chat messages", "error", err)
		return
	}
	if n <= s.retention.MaxMessages {
		return
	}
	removed, err := s.messages.DeleteMessagesBefore(ctx, s.now().Add(-s.retention.MaxAge))
	if err != nil {
		slog.WarnContext(ctx, "Failed to prune chat history", "error", err)
		return
	}
	if removed > 0 {
		slog.InfoContext(ctx, "Chat history pruned", "removed", removed, "count", n)
	}
}

func (s *ChatService) deleteAll(ctx context.Context) string {
	before, deleted, err := s.transactions.DeleteAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Delete all transactions failed", "error", err)
		return chat.DeleteError(false, err)
	}
	return chat.DeleteAllConfirmation(before, deleted)
}

func (s *ChatService) deleteRecent(ctx context.Context) string {
	removed, remaining, err := s.transactions.DeleteRecent(ctx, RecentDeleteCount)
	if err != nil {
		slog.ErrorContext(ctx, "Delete recent transactions failed", "error", err)
		return chat.DeleteError(true, err)
	}
	if len(removed) == 0 {
		return chat.NothingToDeleteText
	}
	return chat.DeleteRecentConfirmation(core.ComputeTotals(removed), remaining)
}

func (s *ChatService) searchByDate(ctx context.Context, text string) string {
	r, ok := s.dates.Resolve(ctx, text)
	if !ok {
		return chat.DateNotUnderstoodText
	}
	found, err := s.transactions.InRange(ctx, r)
	if err != nil {
		slog.ErrorContext(ctx, "Date search failed", "error", err)
		return chat.SearchError(err)
	}
	if len(found) > 0 {
		return chat.TransactionList(found, r)
	}
	all, err := s.transactions.List(ctx)
	if err != nil {
		return chat.SearchError(err)
	}
	return chat.NoTransactionsFound(r, all)
}

func (s *ChatService) setBudget(ctx context.Context, text string) string {
	req, ok := s.budgetP.Parse(ctx, text)
	if !ok {
		return chat.BudgetFailureText
	}
	saved, err := s.budgets.Set(ctx, req.Budget())
	if err != nil {
		slog.ErrorContext(ctx, "Budget save failed", "error", err)
		return chat.BudgetErrorText
	}
	return chat.BudgetConfirmation(saved)
}

// answer is the default flow: a transaction when an amount is present, then
// a balance summary, then the assistant.
func (s *ChatService) answer(ctx context.Context, text string) (reply, meta string) {
	if chat.HasNumber(text) {
		if amount, ok := chat.ExtractAmount(text); ok {
			return s.recordTransaction(ctx, text, amount)
		}
	}
	if chat.IsBalanceQuery(text) {
		totals, err := s.transactions.Totals(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Balance query failed", "error", err)
			return chat.ProcessingErrorText, ""
		}
		return chat.BalanceSummary(totals), ""
	}
	return s.assistant.Reply(ctx, text), ""
}

type transactionMeta struct {
	UniqueID string      `json:"unique_id"`
	IsIncome bool        `json:"is_income"`
	Source   chat.Source `json:"source"`
}

func (s *ChatService) recordTransaction(ctx context.Context, text string, amount core.Money) (string, string) {
	tx := core.Transaction{
		Amount:      amount,
		Category:    chat.ExtractCategory(text),
		Description: chat.Describe(text),
		Date:        s.now(),
	}

	if foreign, ok := currency.Extract(text); ok && foreign.Currency != core.BaseCurrency {
		conv, err := s.converter.ToBase(ctx, foreign)
		if err != nil {
			slog.WarnContext(ctx, "Currency conversion failed, keeping base amount",
				"currency", foreign.Currency, "error", err)
		} else {
			tx.Amount = conv.Converted
			tx.Original = conv.OriginalCurrency()
		}
	}

	cls := s.classifier.Classify(ctx, text)
	tx.IsIncome = cls.IsIncome

	saved, err := s.transactions.Create(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Transaction save failed", "error", err)
		return chat.ProcessingErrorText, ""
	}

	meta, err := json.Marshal(transactionMeta{UniqueID: saved.UniqueID, IsIncome: saved.IsIncome, Source: cls.Source})
	if err != nil {
		return chat.TransactionConfirmation(saved, cls.Source), ""
	}
	return chat.TransactionConfirmation(saved, cls.Source), string(meta)
}
