package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 15 * time.Second

type QuoteReader interface {
	CurrentQuote(ctx context.Context, ref domain.AssetRef) (domain.Quote, bool, error)
}

type ValuationReader interface {
	LatestValuation(ctx context.Context, portfolioID uuid.UUID) (*domain.ValuationSnapshot, error)
}

type ManualTrigger interface {
	TriggerManual(portfolioID uuid.UUID) (uuid.UUID, error)
}

// Commands renders chat replies for the read-mostly bot commands.
type Commands struct {
	quotes     QuoteReader
	valuations ValuationReader
	trigger    ManualTrigger
}

func NewCommands(quotes QuoteReader, valuations ValuationReader, trigger ManualTrigger) *Commands {
	return &Commands{quotes: quotes, valuations: valuations, trigger: trigger}
}

// Price answers "/price <crypto|stock> <symbol>".
func (c *Commands) Price(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: /price crypto bitcoin\n       /price stock AAPL"
	}
	ref, err := domain.NewAssetRef(args[0], args[1])
	if err != nil {
		return fmt.Sprintf("Invalid asset: %v", err)
	}
	q, cached, err := c.quotes.CurrentQuote(ctx, ref)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return fmt.Sprintf("Unknown symbol: %s", ref.Symbol)
	}
	if err != nil {
		return fmt.Sprintf("Error fetching price for %s: %v", ref.Symbol, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\nPrice: $%s", ref.Symbol, ref.Type, q.Price.StringFixed(2))
	if q.Change24hPct != nil {
		fmt.Fprintf(&b, "\n24h Change: %s%%", q.Change24hPct.StringFixed(2))
	}
	if cached {
		b.WriteString("\n(cached)")
	}
	return b.String()
}

// Valuation answers "/valuation <portfolio-id>" with the latest snapshot.
func (c *Commands) Valuation(ctx context.Context, args []string) string {
	id, msg := portfolioArg(args, "/valuation")
	if msg != "" {
		return msg
	}
	v, err := c.valuations.LatestValuation(ctx, id)
	if err != nil {
		return fmt.Sprintf("Error loading valuation: %v", err)
	}
	if v == nil {
		return "No valuation found for this portfolio"
	}
	return fmt.Sprintf(
		"Value: $%s\nCost: $%s\nGain/Loss: $%s (%s%%)\nAs of %s",
		v.TotalValue.StringFixed(2),
		v.TotalCost.StringFixed(2),
		v.TotalGainLoss.StringFixed(2),
		v.TotalGainLossPct.StringFixed(2),
		v.Timestamp.UTC().Format(time.RFC3339),
	)
}

// Calculate answers "/calculate <portfolio-id>" by queueing a manual valuation.
func (c *Commands) Calculate(_ context.Context, args []string) string {
	id, msg := portfolioArg(args, "/calculate")
	if msg != "" {
		return msg
	}
	jobID, err := c.trigger.TriggerManual(id)
	if err != nil {
		return fmt.Sprintf("Could not queue valuation: %v", err)
	}
	return fmt.Sprintf("Valuation job queued\nJob: %s", jobID)
}

func portfolioArg(args []string, cmd string) (uuid.UUID, string) {
	if len(args) == 0 {
		return uuid.Nil, "Usage: " + cmd + " <portfolio-id>"
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, "Invalid portfolio id: " + args[0]
	}
	return id, ""
}

var newBot = tele.NewBot

// Start connects the bot and serves commands in the background. Without a
// token it does nothing. The returned func stops the poller.
func Start(token string, cmds *Commands, log zerolog.Logger) (func(), error) {
	log = log.With().Str("component", "telegram").Logger()
	if token == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return func() {}, nil
	}

	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/price", reply(cmds.Price))
	b.Handle("/valuation", reply(cmds.Valuation))
	b.Handle("/calculate", reply(cmds.Calculate))

	go b.Start()
	log.Info().Msg("Telegram bot started")
	return b.Stop, nil
}

func reply(fn func(ctx context.Context, args []string) string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(fn(ctx, c.Args()))
	}
}
