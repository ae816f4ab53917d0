package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rickchristie/crew"
	"github.com/rickchristie/crew/agent"
	"github.com/rickchristie/crew/review"
	"github.com/rickchristie/crew/session"
)

func chatCmd() *cobra.Command {
	var role string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with one role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), role, verbose)
		},
	}
	cmd.Flags().StringVar(&role, "role", "developer", "role profile to chat with")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print every step, not just the answer")
	return cmd
}

func runChat(ctx context.Context, role string, verbose bool) error {
	logger := zap.NewNop()
	d, err := buildDeps(ctx, logger)
	if err != nil {
		return err
	}

	profile, ok := d.profiles[role]
	if !ok {
		return fmt.Errorf("unknown role %q; run `crewd roles` to list them", role)
	}

	loop := agent.New(d.model).
		WithName(profile.Name).
		WithInstructions(profile.Instructions).
		WithBudget(d.cfg.Budget).
		WithMaxIterations(d.cfg.MaxIterations)
	if profile.MaxIterations > 0 {
		loop.WithMaxIterations(profile.MaxIterations)
	}
	if profile.Budget > 0 {
		loop.WithBudget(profile.Budget.Std())
	}
	reg := crew.NewRegistry()
	for _, name := range profile.Tools {
		if t, ok := d.tools.Get(name); ok {
			reg.Register(t)
		}
	}
	loop.WithTools(reg)
	if profile.Review {
		loop.WithReviewer(review.New(d.model))
	}

	store := session.New(d.cfg.SessionTimeout)
	sessionID := store.Create()

	rl, err := readline.New(fmt.Sprintf("%s> ", role))
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Printf("Chatting with %s (%s). Type 'exit' to quit.\n", role, d.cfg.Model)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("Goodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			fmt.Println("Goodbye!")
			return nil
		}

		history, _ := store.History(sessionID)
		result, err := loop.Run(ctx, line, history)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		if verbose {
			for i, step := range result.Steps {
				fmt.Printf("[%d] %s(%s)\n    -> %s\n", i+1, step.Action, step.Input, step.Observation)
			}
		}
		fmt.Println(result.Answer)
		if result.Stopped {
			fmt.Println("(run stopped before completion)")
		}
		if result.Verdict != nil && result.Verdict.Decision != crew.ReviewApproved {
			fmt.Printf("review: %s - %s\n", result.Verdict.Decision, result.Verdict.Summary)
		}

		store.Append(sessionID, crew.RoleUser, line)
		store.Append(sessionID, crew.RoleAssistant, result.Answer)
	}
}
