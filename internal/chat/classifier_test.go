package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"fintrack/internal/llm"
)

func TestClassifyLocal(t *testing.T) {
	tests := []struct {
		text       string
		wantIncome bool
		wantOK     bool
	}{
		{"I earned 5000 salary", true, true},
		{"My friend gave me 2000rs", true, true},
		{"got a refund of 300", true, true},
		{"Paid 50 for uber", false, true},
		{"bought shoes for 1200", false, true},
		{"I spend 40 daily", false, true},
		// income list is checked first
		{"I got paid 500 and spent 200", true, true},
		{"received 100 but lost 50", true, true},
		{"500 for the uber ride", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			income, ok := ClassifyLocal(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantIncome, income)
			}
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	assert.True(t, ClassifyFallback("300 commission this quarter"))
	assert.True(t, ClassifyFallback("they give me 20"))
	assert.False(t, ClassifyFallback("give 100 to him"))
	assert.False(t, ClassifyFallback("a 40 tax"))
	// tie
	assert.False(t, ClassifyFallback("500 for stuff"))
}

func TestClassifier_LocalSkipsRemote(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := llm.NewMockCompleter(ctrl)
	m.EXPECT().Complete(gomock.Any(), gomock.Any()).Times(0)

	got := NewClassifier(m).Classify(context.Background(), "I received 700 bonus")
	assert.Equal(t, Classification{IsIncome: true, Source: SourceLocal}, got)
}

func TestClassifier_Remote(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  Classification
	}{
		{"income", "INCOME", nil, Classification{IsIncome: true, Source: SourceRemote}},
		{"expense with whitespace", " expense \n", nil, Classification{IsIncome: false, Source: SourceRemote}},
		{"unclear reply", "It is probably income", nil, Classification{IsIncome: false, Source: SourceFallback}},
		{"remote error", "", errors.New("boom"), Classification{IsIncome: false, Source: SourceFallback}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := llm.NewMockCompleter(ctrl)
			m.EXPECT().
				Complete(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, prompt string) (string, error) {
					assert.Contains(t, prompt, "500 for the uber ride")
					assert.Contains(t, prompt, "Reply with only: INCOME or EXPENSE")
					return tt.reply, tt.err
				})

			got := NewClassifier(m).Classify(context.Background(), "500 for the uber ride")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifier_RemoteFailureUsesScores(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := llm.NewMockCompleter(ctrl)
	m.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", context.DeadlineExceeded)

	got := NewClassifier(m).Classify(context.Background(), "300 commission this quarter")
	assert.Equal(t, Classification{IsIncome: true, Source: SourceFallback}, got)
}

func TestClassifier_Disabled(t *testing.T) {
	got := NewClassifier(nil).Classify(context.Background(), "500 for stuff")
	assert.Equal(t, SourceFallback, got.Source)
	assert.False(t, got.IsIncome)
}
