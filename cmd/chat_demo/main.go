// README: Terminal chat against the trip planner with in-memory stores.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tripbot/internal/ai"
	"tripbot/internal/infra"
	"tripbot/internal/modules/booking"
	"tripbot/internal/modules/pricing"
	"tripbot/internal/modules/session"
	"tripbot/internal/service"
	"tripbot/internal/types"
)

// Set GEMINI_API_KEY to let the LLM phrase replies; without it the demo
// uses the deterministic prompts.
func main() {
	ctx := context.Background()
	logger, err := infra.NewLogger(false, "warn")
	if err != nil {
		log.Fatal(err)
	}

	var provider ai.LLMProvider
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		provider, err = ai.NewProvider(ctx, ai.ProviderConfig{Name: "gemini", APIKey: key})
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}
		if c, ok := provider.(io.Closer); ok {
			defer c.Close()
		}
	}

	table := pricing.DefaultTable()
	bookings := booking.NewService(
		booking.NewMemoryStore(),
		booking.MockPayments{Limit: types.NewMoney(decimal.NewFromInt(500000), table.Currency)},
		logger,
	)
	planner := service.NewTripPlanner(service.Deps{
		Sessions:  session.NewMemoryStore(time.Hour, 5*time.Second),
		Estimator: pricing.NewEstimator(table, logger),
		Bookings:  bookings,
		Assistant: ai.NewAssistant(provider, 15*time.Second),
		Logger:    logger,
	})

	fmt.Println("TripBot demo. Type 'quit' to exit, 'quote' for a price check, 'reset' to start over.")
	sid := ""
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return
		case "quote":
			q, err := planner.Quote(ctx, sid)
			if err != nil {
				fmt.Printf("Quote: %v\n", err)
				continue
			}
			fmt.Printf("Quote: %s\n", q.Summary())
			continue
		case "reset":
			if sid != "" {
				_ = planner.Reset(ctx, sid)
			}
			sid = ""
			fmt.Println("Session cleared.")
			continue
		}

		res, err := planner.Chat(ctx, sid, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		sid = res.SessionID
		fmt.Printf("Bot: %s\n", res.Response)
		fmt.Printf("     [step=%s source=%s]\n", res.CurrentStep, res.AdditionalData.ReplySource)
	}
}
