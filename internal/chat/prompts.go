package chat

import (
	"fmt"
	"time"
)

func classifyPrompt(message string) string {
	return fmt.Sprintf(`Classify this financial transaction as INCOME or EXPENSE:

"%s"

INCOME (money received): earned, got, received, salary, bonus, refund, cashback, gave me, paid me
EXPENSE (money spent): spent, paid, bought, cost, lost, gave to, paid for

Reply with only: INCOME or EXPENSE`, message)
}

func budgetPrompt(message string, now time.Time) string {
	month := now.Month()
	year := now.Year()
	return fmt.Sprintf(`I need to extract budget information from user messages. The user might express budget setting in many different ways.

User message: "%[1]s"
Current date: %[2]s %[3]d (Month number: %[4]d)

Please analyze if this message contains budget-setting intent and extract the information.

Examples of what users might say:
- "set this month budget of 1000"
- "Set monthly budget of 1000rs"
- "my budget is 5000"
- "I want to spend 3000 this month"
- "monthly limit is 2500"
- "allocate 4000 for this month"
- "plan to spend 1500"
- "budget 2000 for January"
- "set 800 as my monthly budget"
- "I can spend 6000 this month"
- "monthly allocation is 3500"
- "expense limit 4500"
- "this month I want to spend maximum 2000"
- "1000rs monthly budget"
- "budget this month 5000"

Extract budget information and return ONLY a JSON object:
{
    "amount": [numeric value without currency symbols like ₹, rs, rupees, INR],
    "month": [1-12 where 1=January, 12=December],
    "year": [4-digit year],
    "description": [brief description like "Monthly budget" or null]
}

Rules:
1. Extract ANY numeric value that could be a budget amount (remove ₹, Rs, INR, commas, etc.)
2. For month:
   - If "this month" or no month specified → use current month (%[4]d)
   - If specific month name → convert to number (January=1, February=2, etc.)
   - If "next month" → current month + 1
   - If "last month" → current month - 1
3. For year:
   - If not specified → use current year (%[3]d)
   - If specified → use that year
4. Look for budget-related keywords: budget, spend, limit, allocate, plan, monthly, month
5. If no clear budget intent OR no amount found → return: null

Return only the JSON object or null, nothing else.`, message, month.String(), year, int(month))
}

func datePrompt(query string, now time.Time) string {
	today := DayRangeMillis(now)
	yesterday := now.AddDate(0, 0, -1)
	return fmt.Sprintf(`You are a date parser. Parse the following user query and return the date range in milliseconds.

Current date: %[1]s (%[2]s)

User query: "%[3]s"

Instructions:
- If user mentions specific date like "July 5th" or "5th July", calculate that date for current year %[4]d
- If user mentions day names like "Sunday", "Monday", find the most recent occurrence
- If user mentions "today", use current date (%[2]s)
- If user mentions "yesterday", use %[5]s
- If user mentions "last week" or "this week", provide the week range
- If user mentions month name, provide the full month range for current year

Respond in this EXACT format:
START_TIMESTAMP:XXXXXXXXXX
END_TIMESTAMP:XXXXXXXXXX

Where XXXXXXXXXX is the timestamp in milliseconds.
For a single day, make start and end timestamps cover the full day (00:00:00 to 23:59:59).

Example for %[2]s:
START_TIMESTAMP:%[6]d
END_TIMESTAMP:%[7]d`,
		now.Format("2006-01-02"), now.Format("January 2, 2006"), query, now.Year(),
		yesterday.Format("January 2, 2006"), today[0], today[1])
}

func transactionHintPrompt(message string) string {
	return fmt.Sprintf(`The user said: "%s"

This message contains numbers. Is this a financial transaction? If so, help me understand:
1. Is this income (money coming to user) or expense (money going from user)?
2. What's the amount?

If it's NOT a transaction, just provide a helpful financial assistant response.

Examples of transactions:
- "today I get 200rs" = Income of 200rs
- "I lost 200rs today" = Expense of 200rs
- "got 500 from friend" = Income of 500rs

Provide a helpful response under 150 words.`, message)
}

func advicePrompt(message string) string {
	return fmt.Sprintf(`You are a helpful financial assistant. The user said: "%s"

Provide helpful, practical financial advice or answer their question. Keep it under 150 words and be friendly.`, message)
}
