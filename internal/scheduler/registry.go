// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// Errors returned by the registry.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidSchedule = errors.New("invalid cron expression")
	ErrDuplicateTask   = errors.New("task already registered")
)

// Task is a periodic unit of work.
type Task struct {
	Name        string
	Description string
	// Schedule is a cron expression or descriptor such as "@daily".
	Schedule string
	// Timeout bounds one run. Zero means no limit.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// registeredTask holds a task together with its cron entry.
type registeredTask struct {
	task     Task
	schedule string // effective schedule
	entryID  cron.EntryID
	lastErr  string
	lastRun  time.Time
}

// TaskInfo is the public view of a registered task.
type TaskInfo struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DefaultSchedule string    `json:"default_schedule"`
	Schedule        string    `json:"schedule"`
	IsOverridden    bool      `json:"is_overridden"`
	LastRun         time.Time `json:"last_run,omitzero"`
	LastError       string    `json:"last_error,omitempty"`
	NextRun         time.Time `json:"next_run,omitzero"`
}

// Register adds a task. The schedule is validated before anything is added.
func (s *Scheduler) Register(t Task) error {
	if t.Name == "" || t.Run == nil {
		return fmt.Errorf("task needs a name and a run function")
	}
	if _, err := cronParser.Parse(t.Schedule); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, t.Schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.Name)
	}

	rt := &registeredTask{task: t, schedule: t.Schedule}
	id, err := s.cron.AddFunc(t.Schedule, func() { _ = s.run(rt) })
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", t.Name, err)
	}
	rt.entryID = id
	s.tasks[t.Name] = rt

	s.logger.Debug("registered scheduled task", "name", t.Name, "schedule", t.Schedule)
	return nil
}

// run executes one task run and records its outcome.
func (s *Scheduler) run(rt *registeredTask) error {
	ctx := s.ctx
	if rt.task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.task.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := rt.task.Run(ctx)

	s.mu.Lock()
	rt.lastRun = start
	rt.lastErr = ""
	if err != nil {
		rt.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled task failed", "category", "system", "task", rt.task.Name, "error", err)
		return err
	}
	s.logger.Info("scheduled task finished", "task", rt.task.Name, "duration", time.Since(start))
	return nil
}

// List returns all registered tasks sorted by name.
func (s *Scheduler) List() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TaskInfo, 0, len(s.tasks))
	for _, rt := range s.tasks {
		entry := s.cron.Entry(rt.entryID)
		result = append(result, TaskInfo{
			Name:            rt.task.Name,
			Description:     rt.task.Description,
			DefaultSchedule: rt.task.Schedule,
			Schedule:        rt.schedule,
			IsOverridden:    rt.schedule != rt.task.Schedule,
			LastRun:         rt.lastRun,
			LastError:       rt.lastErr,
			NextRun:         entry.Next,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// TriggerNow runs a task immediately in the caller's goroutine.
func (s *Scheduler) TriggerNow(name string) error {
	s.mu.RLock()
	rt, ok := s.tasks[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	s.logger.Info("manually triggering task", "task", name)
	return s.run(rt)
}

// UpdateSchedule replaces the schedule of a task until the process restarts
// or ResetSchedule is called.
func (s *Scheduler) UpdateSchedule(name, schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if err := s.reschedule(rt, schedule); err != nil {
		return err
	}

	s.logger.Info("updated task schedule", "task", name, "schedule", schedule)
	return nil
}

// ResetSchedule restores the schedule the task was registered with.
func (s *Scheduler) ResetSchedule(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if rt.schedule == rt.task.Schedule {
		return nil
	}
	return s.reschedule(rt, rt.task.Schedule)
}

// reschedule swaps the cron entry of rt. Callers hold s.mu.
func (s *Scheduler) reschedule(rt *registeredTask, schedule string) error {
	s.cron.Remove(rt.entryID)
	id, err := s.cron.AddFunc(schedule, func() { _ = s.run(rt) })
	if err != nil {
		// Restore the previous entry.
		fallback, ferr := s.cron.AddFunc(rt.schedule, func() { _ = s.run(rt) })
		if ferr != nil {
			return fmt.Errorf("restoring schedule of %s: %w (original: %w)", rt.task.Name, ferr, err)
		}
		rt.entryID = fallback
		return fmt.Errorf("applying schedule to %s: %w", rt.task.Name, err)
	}
	rt.entryID = id
	rt.schedule = schedule
	return nil
}
