package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	stampLayout     = "Jan 02, 2006 15:04"
	dayLayout       = "Jan 02, 2006"
	shortLayout     = "Jan 02, 15:04"
	maxListed       = 10
	maxDebugListing = 5
)

const (
	WelcomeText = "Welcome to your Financial Assistant!\n\n" +
		"I can help you track expenses, manage income, and provide financial insights.\n\n" +
		"Try saying:\n" +
		"• \"I spent 500 on food\" (expense)\n" +
		"• \"My friend gave me 2000rs\" (income)\n" +
		"• \"Add 200 rs\" (income)\n" +
		"• \"I earned 5000 salary\" (income)\n" +
		"• \"Paid 50 for uber\" (expense)\n" +
		"• \"What's my balance?\"\n" +
		"• \"Show me spending analysis\"\n" +
		"• \"Show transactions from July 5th\" (date search)\n" +
		"• \"Transactions on Sunday\" (day search)\n" +
		"• \"Yesterday's transactions\" (recent search)\n" +
		"• \"Clear all transactions\" (delete all data)\n" +
		"• \"Clear recent transactions\" (delete last 5)\n" +
		"• \"Clear chat\" (clear chat history)\n\n" +
		"How can I help you today?"

	ChatClearedText = "✅ All previous messages have been cleared successfully!"

	ProcessingErrorText = "I encountered an error processing your request. Please try again or rephrase your message.\n\n" +
		"For transactions, try: 'I earned 200rs' or 'I spent 100 on food'"

	AssistantFallbackText = "I'm here to help with your finances! 💰\n\n" +
		"For transactions, try:\n• 'I earned 200rs'\n• 'I spent 100 on food'\n• 'I got 500 from friend'\n\n" +
		"You can also ask for your balance or financial advice!"

	AssistantOfflineText = "I'm having trouble with my AI connection right now. 🤖\n\n" +
		"You can still add transactions like:\n• 'I earned 200rs'\n• 'I spent 100 on food'\n\nOr ask for your balance!"

	TransactionTip = "\n\n💡 *Tip: For clearer transactions, try 'I earned 200rs' or 'I spent 100 on food'*"

	CategoriesText = `📋 **Available Expense Categories:**

🍕 **Food & Dining**
🚗 **Transportation**
🛍️ **Shopping**
🎬 **Entertainment**
💡 **Bills & Utilities**
🏥 **Healthcare**
📚 **Education**
✈️ **Travel**
🏠 **Housing**
👕 **Clothing**
💼 **Business**
🎁 **Gifts & Donations**
📱 **Technology**
💰 **Other**

Simply mention any category when adding expenses!
Example: "I spent ₹500 on food"`

	NothingToDeleteText = `❌ **No Transactions to Delete**

There are no transactions to clear. Your account is already empty.`

	DateNotUnderstoodText = `❌ **Could not understand the date**

I couldn't parse the date from your request. Please try again with formats like:
• "Show transactions from July 5th"
• "Transactions on Sunday"
• "Show me yesterday's transactions"
• "Transactions from last week"`

	BudgetFailureText = "❌ I couldn't understand your budget request. I can help you set budgets in many natural ways!\n\n" +
		"✨ **Try saying it naturally:**\n" +
		"• \"Set this month budget of 1000\"\n" +
		"• \"My budget is ₹5000\"\n" +
		"• \"I want to spend 3000 this month\"\n" +
		"• \"Monthly limit is 2500\"\n" +
		"• \"Plan to spend 1500\"\n" +
		"• \"Allocate 4000 for this month\"\n\n" +
		"💬 Just mention a number and words like 'budget', 'spend', 'month', or 'limit' - I'll understand!"

	BudgetErrorText = "❌ Sorry, I encountered an error while setting your budget. Please try again."

	apologyText = "Sorry, I couldn't put that response together. Please try again."
)

func sourceLabel(s Source) string {
	switch s {
	case SourceRemote:
		return "AI classified"
	case SourceLocal:
		return "keyword match"
	default:
		return "best guess"
	}
}

func txKind(income bool) (symbol, kind string) {
	if income {
		return "+", "Income"
	}
	return "-", "Expense"
}

// TransactionConfirmation renders the "Transaction Added" message.
func TransactionConfirmation(tx core.Transaction, src Source) string {
	if tx.UniqueID == "" || tx.Amount.Cents <= 0 || tx.Date.IsZero() {
		return apologyText
	}
	symbol, kind := txKind(tx.IsIncome)
	var b strings.Builder
	b.WriteString("✅ **Transaction Added Successfully!**\n\n")
	fmt.Fprintf(&b, "💰 **Amount:** %s₹%s\n", symbol, tx.Amount)
	if o := tx.Original; o != nil {
		fmt.Fprintf(&b, "💱 **Original:** %s %s (rate %.4f)\n", o.Amount, o.Currency, o.Rate)
	}
	fmt.Fprintf(&b, "📁 **Category:** %s\n", tx.Category)
	fmt.Fprintf(&b, "📝 **Description:** %s\n", tx.Description)
	fmt.Fprintf(&b, "🆔 **ID:** %s\n", tx.UniqueID)
	fmt.Fprintf(&b, "⏰ **Date:** %s\n", tx.Date.Format(stampLayout))
	fmt.Fprintf(&b, "🤖 **Type:** %s (%s)\n\n", kind, sourceLabel(src))
	fmt.Fprintf(&b, "Your %s has been recorded in the system.", kind)
	return b.String()
}

func balanceVerdict(balance core.Money) string {
	if balance.Cents >= 0 {
		return "✅ You're in good financial shape!"
	}
	return "⚠️ Consider reviewing your expenses."
}

// BalanceSummary renders the "Financial Summary" message.
func BalanceSummary(t core.Totals) string {
	balance := t.Balance()
	return fmt.Sprintf(`📊 **Financial Summary**

💰 **Total Income:** +₹%s
💸 **Total Expenses:** -₹%s
📈 **Current Balance:** ₹%s

%s`, t.Income, t.Expenses, balance, balanceVerdict(balance))
}

// DeleteAllConfirmation reports a wipe given the totals before it.
func DeleteAllConfirmation(before core.Totals, deleted int) string {
	return fmt.Sprintf(`🗑️ **All Transactions Deleted Successfully!**

📊 **Previous Summary:**
💰 **Total Income:** +₹%s
💸 **Total Expenses:** -₹%s
📈 **Previous Balance:** ₹%s
🔢 **Transactions Deleted:** %d

📈 **Current Status:**
💰 **Total Income:** ₹0.00
💸 **Total Expenses:** ₹0.00
📈 **Current Balance:** ₹0.00

✅ Your account has been reset to zero. All transaction history has been cleared.`,
		before.Income, before.Expenses, before.Balance(), deleted)
}

// DeleteRecentConfirmation reports the removed batch and the remaining totals.
func DeleteRecentConfirmation(removed, remaining core.Totals) string {
	return fmt.Sprintf(`🗑️ **Recent Transactions Deleted Successfully!**

📊 **Deleted Transactions:**
💰 **Recent Income Deleted:** -₹%s
💸 **Recent Expenses Deleted:** -₹%s
🔢 **Transactions Deleted:** %d (most recent)

📈 **Current Status:**
💰 **Total Income:** +₹%s
💸 **Total Expenses:** -₹%s
📈 **Current Balance:** ₹%s
📝 **Remaining Transactions:** %d

✅ Your recent transactions have been cleared successfully.`,
		removed.Income, removed.Expenses, removed.Count,
		remaining.Income, remaining.Expenses, remaining.Balance(), remaining.Count)
}

// DeleteError renders a persistence failure of a destructive command.
func DeleteError(recent bool, err error) string {
	what, title := "all transactions", "❌ **Error Deleting Transactions**"
	if recent {
		what, title = "recent transactions", "❌ **Error Deleting Recent Transactions**"
	}
	return fmt.Sprintf(`%s

Sorry, there was an error while trying to delete %s: %v

Please try again later or check your app settings.`, title, what, err)
}

// SearchError renders a persistence failure of a date search.
func SearchError(err error) string {
	return fmt.Sprintf(`❌ **Error Searching Transactions**

Sorry, there was an error while searching for transactions: %v

Please try again later.`, err)
}

func newestFirst(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// TransactionList renders the transactions found in r, newest ten in detail.
func TransactionList(txs []core.Transaction, r core.DateRange) string {
	totals := core.ComputeTotals(txs)
	start, end := r.Start.Format(dayLayout), r.End.Format(dayLayout)
	rangeText := start
	if start != end {
		rangeText = start + " to " + end
	}

	sorted := newestFirst(txs)
	if len(sorted) > maxListed {
		sorted = sorted[:maxListed]
	}
	items := make([]string, 0, len(sorted))
	for _, tx := range sorted {
		symbol, kind := txKind(tx.IsIncome)
		items = append(items, fmt.Sprintf("💰 %s₹%s | %s\n📁 Category: %s\n📝 %s\n🆔 ID: %s\n⏰ %s",
			symbol, tx.Amount, kind, tx.Category, tx.Description, tx.UniqueID, tx.Date.Format(shortLayout)))
	}
	limit := ""
	if len(txs) > maxListed {
		limit = fmt.Sprintf("\n\n📋 Showing latest %d of %d transactions", maxListed, len(txs))
	}

	return fmt.Sprintf(`📅 **Transactions for %s**

📊 **Summary:**
💰 **Total Income:** +₹%s
💸 **Total Expenses:** -₹%s
📈 **Net Amount:** ₹%s
🔢 **Transaction Count:** %d

📋 **Transaction Details:**

%s%s`, rangeText, totals.Income, totals.Expenses, totals.Balance(), totals.Count,
		strings.Join(items, "\n\n"), limit)
}

// NoTransactionsFound renders an empty search with a peek at the latest records.
func NoTransactionsFound(r core.DateRange, all []core.Transaction) string {
	latest := newestFirst(all)
	if len(latest) > maxDebugListing {
		latest = latest[:maxDebugListing]
	}
	lines := make([]string, 0, len(latest))
	for _, tx := range latest {
		lines = append(lines, fmt.Sprintf("• %s - %s - ₹%s", tx.Date.Format(shortLayout), tx.Description, tx.Amount))
	}
	return fmt.Sprintf(`📅 **No Transactions Found**

No transactions found for the specified date/period.

🔍 **Search Info:**
• Date range searched: %s to %s
• Total transactions recorded: %d

📋 **Your latest transactions:**
%s

Would you like to:
• Check a different date
• View all transactions with "what's my balance?"
• Add a new transaction`, r.Start.Format(stampLayout), r.End.Format(stampLayout), len(all), strings.Join(lines, "\n"))
}

// BudgetConfirmation renders the "Budget Set" message.
func BudgetConfirmation(b core.Budget) string {
	if b.Month < 1 || b.Month > 12 || b.Amount.Cents <= 0 {
		return apologyText
	}
	var sb strings.Builder
	sb.WriteString("✅ **Budget Set Successfully!**\n\n")
	fmt.Fprintf(&sb, "💰 **Amount:** ₹%s\n", b.Amount)
	fmt.Fprintf(&sb, "📅 **Month:** %s %d\n", time.Month(b.Month), b.Year)
	if b.Description != "" {
		fmt.Fprintf(&sb, "📝 **Note:** %s\n", b.Description)
	}
	sb.WriteString("\n🎯 **Your budget is now active!** Check Monthly/Daily Analytics to track your progress.\n\n")
	sb.WriteString("💡 **Tip:** I can understand budget commands in many ways:\n")
	sb.WriteString("• \"My budget is ₹3000\"\n")
	sb.WriteString("• \"Set this month budget of 1000\"\n")
	sb.WriteString("• \"I plan to spend 5000 this month\"\n")
	sb.WriteString("• \"Monthly limit is 2500\"")
	return sb.String()
}
