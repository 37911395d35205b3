package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/tracksync/internal/config"
	"github.com/kazz187/tracksync/pkg/cerr"
	"github.com/kazz187/tracksync/pkg/clog"
)

var (
	app = kingpin.New("tracksync", "Sync taskmaster tasks into GitHub issues and project boards")

	syncCmd    = app.Command("sync", "Sync local tasks into the tracker")
	syncDryRun = syncCmd.Flag("dry-run", "Report what would be created without writing anything").Bool()
	syncWatch  = syncCmd.Flag("watch", "Keep running and re-sync when the tasks file changes").Bool()

	resolveCmd   = app.Command("resolve", "Resolve a free-text or numeric query to exactly one tracked item")
	resolveQuery = resolveCmd.Arg("query", "Title fragment, #number, or phrase").Required().String()

	statusCmd  = app.Command("status", "Resolve a free-text status name to a canonical board status")
	statusName = statusCmd.Arg("name", "Status name or alias").Required().String()

	stateCmd        = app.Command("state", "Sync state file maintenance")
	stateVerifyCmd  = stateCmd.Command("verify", "Audit the state file against its invariants")
	stateCleanupCmd = stateCmd.Command("cleanup", "Drop mappings whose local task no longer exists")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tracksync: %v\n", err)
		os.Exit(1)
	}

	handler := clog.NewTextHandler(os.Stderr, clog.WithLevel(env.SlogLevel()))
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = clog.ContextWithSlog(ctx)

	switch command {
	case syncCmd.FullCommand():
		err = runSync(ctx, env, *syncDryRun || env.DryRun, *syncWatch)
	case resolveCmd.FullCommand():
		err = runResolve(ctx, env, *resolveQuery)
	case statusCmd.FullCommand():
		err = runStatus(ctx, env, *statusName)
	case stateVerifyCmd.FullCommand():
		err = runStateVerify(ctx, env)
	case stateCleanupCmd.FullCommand():
		err = runStateCleanup(ctx, env)
	}

	if err != nil {
		var coded *cerr.Error
		if errors.As(err, &coded) {
			// Caller mistakes render as plain messages; infrastructure
			// failures carry a stack and get a full log record too.
			if coded.Stack != "" {
				clog.AddError(ctx, coded)
				clog.AddStack(ctx, coded.Stack)
				slog.Log(ctx, coded.Code.SlogLevel(), "command failed")
			}
			fmt.Fprintln(os.Stderr, coded.UserMessage())
		} else {
			clog.AddError(ctx, err)
			slog.ErrorContext(ctx, "command failed")
			fmt.Fprintf(os.Stderr, "tracksync: %v\n", err)
		}
		os.Exit(1)
	}
}
