package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// GoalProgress aggregates the active savings goals.
type GoalProgress struct {
	TotalTarget core.Money
	TotalSaved  core.Money
	Remaining   core.Money
	Percent     float64
}

type GoalService struct {
	goals ports.GoalStore
	now   func() time.Time
}

func NewGoalService(goals ports.GoalStore) *GoalService {
	return &GoalService{goals: goals, now: time.Now}
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.Priority == 0 {
		g.Priority = 2
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("validate goal: %w", err)
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	g.Completed = g.Current.Cents >= g.Target.Cents
	saved, err := s.goals.CreateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created", "id", saved.ID, "title", saved.Title, "target", saved.Target.String())
	return saved, nil
}

func (s *GoalService) Update(ctx context.Context, g core.SavingsGoal) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("validate goal: %w", err)
	}
	return s.goals.UpdateGoal(ctx, g)
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	return s.goals.DeleteGoal(ctx, id)
}

func (s *GoalService) Get(ctx context.Context, id int64) (core.SavingsGoal, error) {
	return s.goals.GetGoal(ctx, id)
}

func (s *GoalService) List(ctx context.Context) ([]core.SavingsGoal, error) {
	return s.goals.ListGoals(ctx)
}

func (s *GoalService) Active(ctx context.Context) ([]core.SavingsGoal, error) {
	return s.filter(ctx, false)
}

func (s *GoalService) Completed(ctx context.Context) ([]core.SavingsGoal, error) {
	return s.filter(ctx, true)
}

func (s *GoalService) filter(ctx context.Context, completed bool) ([]core.SavingsGoal, error) {
	all, err := s.goals.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.SavingsGoal, 0, len(all))
	for _, g := range all {
		if g.Completed == completed {
			out = append(out, g)
		}
	}
	return out, nil
}

// AddTo adds amount to the goal's savings, completing it once the target is reached.
func (s *GoalService) AddTo(ctx context.Context, id int64, amount core.Money) (core.SavingsGoal, error) {
	if err := amount.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g, err := s.goals.GetGoal(ctx, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.Current = g.Current.Add(amount)
	if g.Current.Cents >= g.Target.Cents {
		g.Completed = true
	}
	if err := s.goals.UpdateGoal(ctx, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	return g, nil
}

// MarkCompleted flags every goal whose savings reached its target.
func (s *GoalService) MarkCompleted(ctx context.Context) (int, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, g := range active {
		if g.Current.Cents < g.Target.Cents {
			continue
		}
		g.Completed = true
		if err := s.goals.UpdateGoal(ctx, g); err != nil {
			return n, fmt.Errorf("complete goal %d: %w", g.ID, err)
		}
		n++
	}
	return n, nil
}

// Progress sums target and saved amounts over the active goals.
func (s *GoalService) Progress(ctx context.Context) (GoalProgress, error) {
	active, err := s.Active(ctx)
	if err != nil {
		return GoalProgress{}, err
	}
	var p GoalProgress
	for _, g := range active {
		p.TotalTarget = p.TotalTarget.Add(g.Target)
		p.TotalSaved = p.TotalSaved.Add(g.Current)
	}
	if p.TotalSaved.Cents < p.TotalTarget.Cents {
		p.Remaining = p.TotalTarget.Sub(p.TotalSaved)
	}
	if p.TotalTarget.Cents > 0 {
		p.Percent = float64(p.TotalSaved.Cents) / float64(p.TotalTarget.Cents) * 100
	}
	return p, nil
}
