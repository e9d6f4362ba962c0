// Command main is a terminal client for the idea board. It loads the full
// board, prints the sorted view, and follows live events, re-rendering on
// every change. It doubles as a smoke test for the client core against a
// running API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ideaboard/internal/board"
	"ideaboard/internal/board/remote"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8460", "API base URL")
	userID := flag.Uint("user", 1, "Acting user id")
	likeLimit := flag.Int("like-limit", 3, "Daily like limit")
	likeID := flag.Uint("like", 0, "Like this idea id after loading, then exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	client := remote.NewClient(*baseURL, uint(*userID))
	proj := board.NewProjection()
	rec := board.NewReconciler(proj, client, logger)
	ledger := board.NewLikeLedger(client, uint(*userID), *likeLimit)
	mut := board.NewMutator(proj, rec, client, ledger, uint(*userID), logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rec.Initialize(ctx); err != nil {
		log.Fatalf("Failed to load board: %v", err)
	}
	if _, err := ledger.FetchRemaining(ctx, true); err != nil {
		logger.Warn("could not fetch like quota", "error", err)
	}
	render(proj, ledger)

	if *likeID != 0 {
		count, err := mut.Like(ctx, *likeID)
		if err != nil {
			log.Fatalf("Like failed: %v", err)
		}
		fmt.Printf("Liked idea %d, now at %d likes (%d likes left today)\n",
			*likeID, count, ledger.Remaining())
		return
	}

	stream := remote.NewEventStream(*baseURL, uint(*userID),
		func(raw []byte) {
			rec.HandleEvent(raw)
			render(proj, ledger)
		},
		remote.WithOnReconnect(func() {
			// Events during the gap are lost; reload the whole board.
			if err := rec.Initialize(ctx); err != nil {
				logger.Error("reload after reconnect failed", "error", err)
				return
			}
			render(proj, ledger)
		}),
		remote.WithStreamLogger(logger),
	)

	if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Event stream failed: %v", err)
	}
}

func render(proj *board.Projection, ledger *board.LikeLedger) {
	fmt.Printf("\n=== Board (%d ideas, %d likes left today) ===\n", proj.Len(), ledger.Remaining())
	view := proj.SortedView()
	for _, subject := range proj.Subjects() {
		fmt.Printf("%s:\n", subject)
		for _, idea := range view[subject] {
			marker := " "
			if idea.Liked {
				marker = "*"
			}
			fmt.Printf("  %s [%3d] #%-4d %-50s (%s)\n",
				marker, idea.LikesCount, idea.ID, idea.Title, idea.Status)
		}
	}
}
