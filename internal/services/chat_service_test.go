package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fintrack/internal/chat"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/llm"
	"fintrack/internal/storage/memory"
)

type chatFixture struct {
	store *memory.Store
	mock  *llm.MockCompleter
	txs   *TransactionService
	svc   *ChatService
}

func newChatFixture(t *testing.T, opts ...ChatOption) chatFixture {
	t.Helper()
	store := memory.New()
	mock := llm.NewMockCompleter(gomock.NewController(t))
	txs := NewTransactionService(store, nil)
	txs.now = fixedClock(refTime)
	opts = append([]ChatOption{WithClock(fixedClock(refTime))}, opts...)
	svc := NewChatService(store, txs, NewBudgetService(store, store), mock, opts...)
	return chatFixture{store: store, mock: mock, txs: txs, svc: svc}
}

func TestChatService_EarnedSalary(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	// local keywords decide, so no completion call is expected
	reply, err := f.svc.Send(ctx, "I earned 5000 salary")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Transaction Added Successfully")
	assert.Contains(t, reply.Text, "+₹5000.00")
	assert.Contains(t, reply.Metadata, `"is_income":true`)

	all, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsIncome)
	assert.Equal(t, core.MustMoney(5000), all[0].Amount)
	assert.Equal(t, "I earned 5000 salary", all[0].Description)
	assert.True(t, core.ValidUniqueID(all[0].UniqueID))

	history, err := f.svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsUser)
	assert.Equal(t, core.MessageAI, history[1].Type)
}

func TestChatService_PaidUber(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	_, err := f.svc.Send(ctx, "Paid 50 for uber")
	require.NoError(t, err)

	all, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsIncome)
	assert.Equal(t, "Transportation", all[0].Category)
	assert.Equal(t, core.MustMoney(50), all[0].Amount)
}

func TestChatService_RemoteClassification(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.mock.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("INCOME", nil)

	reply, err := f.svc.Send(ctx, "500 from the garage sale")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "AI classified")

	all, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsIncome)
}

func TestChatService_ForeignCurrency(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, WithConverter(currency.NewConverter(fixedRates{rate: decimal.RequireFromString("84")})))

	_, err := f.svc.Send(ctx, "spent 10 USD on lunch")
	require.NoError(t, err)

	all, err := f.store.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, core.MustMoney(840), all[0].Amount)
	require.NotNil(t, all[0].Original)
	assert.Equal(t, "USD", all[0].Original.Currency)
	assert.Equal(t, core.MustMoney(10), all[0].Original.Amount)
}

func TestChatService_Budget(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	reply, err := f.svc.Send(ctx, "set monthly budget of 1000rs")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Budget Set Successfully")

	_, err = f.svc.Send(ctx, "set monthly budget of 2000rs")
	require.NoError(t, err)

	budgets, err := f.store.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, core.MustMoney(2000), budgets[0].Amount)
	assert.Equal(t, 10, budgets[0].Month)
	assert.Equal(t, 2026, budgets[0].Year)
}

func TestChatService_BudgetNotUnderstood(t *testing.T) {
	f := newChatFixture(t)
	f.mock.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("null", nil)

	reply, err := f.svc.Send(context.Background(), "my budget is fine")
	require.NoError(t, err)
	assert.Equal(t, chat.BudgetFailureText, reply.Text)
}

func TestChatService_DeleteRecent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	reply, err := f.svc.Send(ctx, "delete recent")
	require.NoError(t, err)
	assert.Equal(t, chat.NothingToDeleteText, reply.Text)

	for i := range 7 {
		seedTx(t, f.store, "RCNT"+string(rune('1'+i)), 100, false, "Other", refTime.Add(time.Duration(i)*time.Minute))
	}
	reply, err = f.svc.Send(ctx, "delete recent")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Transactions Deleted:** 5 (most recent)")
	assert.Contains(t, reply.Text, "Remaining Transactions:** 2")
}

func TestChatService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	seedTx(t, f.store, "DALL1", 5000, true, "Other", refTime)
	seedTx(t, f.store, "DALL2", 50, false, "Other", refTime)

	reply, err := f.svc.Send(ctx, "delete all transactions")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "All Transactions Deleted Successfully")
	assert.Contains(t, reply.Text, "Transactions Deleted:** 2")

	n, err := f.store.Totals(ctx)
	require.NoError(t, err)
	assert.Zero(t, n.Count)
}

func TestChatService_ClearChat(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	require.NoError(t, f.svc.EnsureWelcome(ctx))
	_, err := f.svc.Send(ctx, "what are the categories")
	require.NoError(t, err)

	reply, err := f.svc.Send(ctx, "clear chat")
	require.NoError(t, err)
	assert.Equal(t, chat.ChatClearedText, reply.Text)

	history, err := f.svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsUser)
}

func TestChatService_EnsureWelcome(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	require.NoError(t, f.svc.EnsureWelcome(ctx))
	require.NoError(t, f.svc.EnsureWelcome(ctx))

	history, err := f.svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, chat.WelcomeText, history[0].Text)
}

func TestChatService_DateSearch(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	seedTx(t, f.store, "TODAY", 250, false, "Food & Dining", refTime.Add(-time.Hour))
	seedTx(t, f.store, "PAST1", 80, false, "Other", refTime.AddDate(0, 0, -3))

	reply, err := f.svc.Send(ctx, "show transactions today")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "TODAY")
	assert.NotContains(t, reply.Text, "PAST1")

	reply, err = f.svc.Send(ctx, "transactions yesterday")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "No Transactions Found")
}

func TestChatService_BalanceAndAssistant(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	seedTx(t, f.store, "BAL01", 300, true, "Other", refTime)

	reply, err := f.svc.Send(ctx, "what's my balance?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Financial Summary")
	assert.Contains(t, reply.Text, "+₹300.00")

	f.mock.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("offline"))
	reply, err = f.svc.Send(ctx, "how do I save better?")
	require.NoError(t, err)
	assert.Equal(t, chat.AssistantOfflineText, reply.Text)
}

func TestChatService_Retention(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, WithRetention(Retention{MaxMessages: 3, MaxAge: time.Hour}))

	for i := range 4 {
		_, err := f.store.AddMessage(ctx, core.ChatMessage{
			Text: "old", Timestamp: refTime.Add(-time.Duration(i+2) * time.Hour), Type: core.MessageUser, IsUser: true,
		})
		require.NoError(t, err)
	}

	_, err := f.svc.Send(ctx, "categories")
	require.NoError(t, err)

	history, err := f.svc.History(ctx, 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, m := range history {
		assert.False(t, strings.EqualFold(m.Text, "old"))
	}
}

func TestChatService_EmptyMessage(t *testing.T) {
	_, err := newChatFixture(t).svc.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
