package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xxxsen/curio/internal/citation"
	"github.com/xxxsen/curio/internal/config"
	"github.com/xxxsen/curio/internal/job"
	"github.com/xxxsen/curio/internal/model"
	"github.com/xxxsen/curio/internal/pkg/timeutil"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk(ctx context.Context, cfg *config.Config, w io.Writer, question string) error {
	if question == "" {
		return fmt.Errorf("question required")
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.answers.Answer(ctx, question)
	printResult(w, out.Result)
	if out.Failed {
		return fmt.Errorf("answer failed")
	}
	return nil
}

func printResult(w io.Writer, result model.QueryResult) {
	fmt.Fprintln(w, result.Answer)
	segments := citation.Parse(result.Answer)
	cited := map[int]bool{}
	for _, idx := range citation.Indices(segments) {
		cited[idx] = true
	}
	if len(result.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for i, src := range result.Sources {
		mark := " "
		if cited[i+1] {
			mark = "*"
		}
		fmt.Fprintf(w, "%s[%d] %s (%s)\n    %s\n", mark, i+1, src.Title, src.Domain, src.URL)
	}
}

func runHistoryList(ctx context.Context, cfg *config.Config, w io.Writer) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	for _, item := range a.history.List() {
		feedback := "-"
		if item.Feedback != model.FeedbackNone {
			feedback = string(item.Feedback)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, timeutil.FormatRelative(item.Timestamp, now), feedback, item.Question)
	}
	return nil
}

func runHistoryExport(ctx context.Context, cfg *config.Config, w io.Writer, format string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.history.Export(w, format)
}

func runHistoryBackup(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	slot, err := a.backupSlot()
	if err != nil {
		return err
	}
	return job.NewHistoryBackupJob(a.history, slot, cfg.Backup.Key, cfg.Backup.Format).Run(ctx)
}
