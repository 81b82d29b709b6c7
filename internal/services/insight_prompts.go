package services

import "fmt"

func insightPrompt(context string) string {
	return fmt.Sprintf(`As an expert financial advisor AI, analyze the following comprehensive financial data and generate ONE actionable financial insight.

FINANCIAL DATA:
%s

Generate a specific, actionable insight in the following JSON format:
{
    "title": "Brief insight title (max 50 characters)",
    "description": "Detailed actionable advice (100-200 words)",
    "type": "SPENDING_PATTERN|SAVING_OPPORTUNITY|BUDGET_WARNING|INCOME_ANALYSIS|GOAL_PROGRESS|CATEGORY_OPTIMIZATION",
    "priority": "LOW|MEDIUM|HIGH|CRITICAL",
    "confidence": 0.0-1.0
}

Focus on the most important finding that could help improve their financial situation.`, context)
}

func spendingAnalysisPrompt(context string) string {
	return fmt.Sprintf(`Analyze the spending patterns from this financial data and provide specific insights:

FINANCIAL DATA:
%s

Provide a comprehensive spending analysis including:
1. Top spending categories and trends
2. Unusual spending patterns or anomalies
3. Recommendations for optimization
4. Comparison with typical financial health benchmarks

Keep response concise but informative (150-200 words).`, context)
}

func savingsAdvicePrompt(context string) string {
	return fmt.Sprintf(`Based on this financial data, provide personalized savings advice:

FINANCIAL DATA:
%s

Include:
1. Assessment of current savings rate
2. Specific areas where savings can be increased
3. Goal-oriented savings strategies
4. Emergency fund recommendations

Provide actionable, specific advice (150-200 words).`, context)
}

func earningsPrompt(context string) string {
	return fmt.Sprintf(`Analyze the earnings and income trends from this data:

FINANCIAL DATA:
%s

Provide insights on:
1. Income stability and trends
2. Income vs expenses ratio
3. Opportunities for income improvement
4. Financial growth recommendations

Keep response focused and actionable (150-200 words).`, context)
}

func monthlySummaryPrompt(context string) string {
	return fmt.Sprintf(`Generate a comprehensive monthly financial summary based on this data:

FINANCIAL DATA:
%s

Include:
1. Key financial metrics for the month
2. Progress towards savings goals
3. Notable spending changes
4. Recommendations for next month

Provide a well-structured summary (200-250 words).`, context)
}
