package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/fugle"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/openai"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/cache"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/config"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/pipeline"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/report"
)

// Runs one scan and pushes the summary to every chat listed in
// BROADCAST_CHAT_IDS. Meant to be fired from crontab or CI, so it does
// not keep a bot process around.
func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	chatIDs := parseChatIDs(os.Getenv("BROADCAST_CHAT_IDS"))
	if len(chatIDs) == 0 {
		log.Fatal().Msg("BROADCAST_CHAT_IDS not set, nothing to broadcast to")
	}
	if cfg.Telegram.Token == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	client := fugle.NewClient(fugle.ClientOptions{
		APIKey:         cfg.FugleAPIKey,
		BaseURL:        cfg.FugleBaseURL,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.HTTP.RequestsPerSec,
		MaxRetries:     cfg.HTTP.MaxRetries,
	})
	resolver := cache.NewResolver(client, cache.NewMemoryCache(cfg.Cache.NameTTL))
	runner := pipeline.NewRunner(cfg, client, resolver, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := runner.Run(ctx, cfg.Symbol, cfg.Timeframe)
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed, nothing broadcast")
	}

	text := report.FormatSummary(res.DisplayName, res.Symbol, res.Timeframe, res.Rows, res.Verdict)
	if cfg.Narrative.Enabled {
		narrator := openai.NewClient(cfg.Narrative.APIKey, cfg.Narrative.Models)
		if commentary, err := narrator.Commentary(ctx, res.Payload); err != nil {
			log.Warn().Err(err).Msg("Commentary unavailable, sending the summary alone")
		} else {
			text += "\n\n🤖 " + commentary
		}
	}

	sent, failed := 0, 0
	for i, chatID := range chatIDs {
		if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send scan summary")
			failed++
		} else {
			sent++
		}
		// Stay under the Telegram bot message rate
		if i < len(chatIDs)-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	log.Info().
		Str("symbol", res.Symbol).
		Str("label", string(res.Verdict.Label)).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Broadcast completed")
	if failed > 0 && sent == 0 {
		os.Exit(1)
	}
}

func parseChatIDs(raw string) []int64 {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Warn().Str("value", part).Msg("Skipping malformed chat ID")
			continue
		}
		out = append(out, id)
	}
	return out
}
