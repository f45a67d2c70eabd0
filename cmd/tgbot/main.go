package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/fugle"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/api/openai"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/cache"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/config"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/journal"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/metrics"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/pipeline"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/report"
	"github.com/xgabrieliou-ai/my-stock-dashboard/internal/scheduler"
	"github.com/xgabrieliou-ai/my-stock-dashboard/models"
)

var (
	popularSymbols = []string{
		"2330", "2317", "2454", "2603",
		"2881", "2412", "0050", "00878",
	}

	symbolPattern = regexp.MustCompile(`^[0-9A-Za-z]{2,10}$`)

	// Map to store user states
	userStates = make(map[int64]*UserState)
)

// User state stages
const (
	StageInitial           = 0
	StageAwaitingSymbol    = 1
	StageAwaitingTimeframe = 2
)

const scanTimeout = 60 * time.Second

// UserState represents the current state of a chat's interaction
type UserState struct {
	Stage        int
	Symbol       string
	Timeframe    string
	LastActivity time.Time
}

// Shared services, wired once in main
var (
	appCfg       *models.Config
	runner       *pipeline.Runner
	journalStore journal.Journal
	narrator     *openai.Client
	sched        *scheduler.Scheduler
	botMetrics   *metrics.Metrics
)

func main() {
	// 1. Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	appCfg = cfg

	// 2. Configure logging
	setupLogging(cfg.LogLevel)

	if cfg.Telegram.Token == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	// 3. Initialize Telegram bot
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	// 4. Wire the scan pipeline and its collaborators
	client := fugle.NewClient(fugle.ClientOptions{
		APIKey:         cfg.FugleAPIKey,
		BaseURL:        cfg.FugleBaseURL,
		RequestTimeout: time.Duration(cfg.HTTP.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.HTTP.RequestsPerSec,
		MaxRetries:     cfg.HTTP.MaxRetries,
	})
	resolver := cache.NewResolver(client, newNameCache(cfg))

	botMetrics = metrics.New(nil)
	if cfg.Metrics.Addr != "" {
		msrv := metrics.NewServer(cfg.Metrics.Addr)
		msrv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			msrv.Stop(ctx)
		}()
	}

	journalStore, err = journal.Open(cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open scan journal")
	}
	defer journalStore.Close()

	if cfg.Narrative.Enabled {
		narrator = openai.NewClient(cfg.Narrative.APIKey, cfg.Narrative.Models)
	}

	runner = pipeline.NewRunner(cfg, client, resolver, botMetrics)

	// 5. Scheduled scans
	sched = scheduler.New()
	if cfg.Telegram.CronSpec != "" {
		if err := sched.Register(cfg.Telegram.CronSpec, func(sub scheduler.Subscription) {
			runScheduledScan(bot, sub)
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to register scan cron")
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Receive updates until a shutdown signal arrives
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		log.Info().Msg("Shutdown signal received, stopping updates")
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message != nil {
			handleMessage(bot, update.Message)
		} else if update.CallbackQuery != nil {
			handleCallback(bot, update.CallbackQuery)
		}
	}
	log.Info().Msg("Bot stopped")
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// newNameCache picks Redis when configured, falling back to the
// in-process cache.
func newNameCache(cfg *models.Config) cache.NameCache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.Cache.NameTTL)
	}
	rc, err := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.NameTTL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, using in-memory name cache")
		return cache.NewMemoryCache(cfg.Cache.NameTTL)
	}
	return rc
}

// handleMessage processes incoming text messages
func handleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	state, exists := userStates[chatID]
	if !exists || message.Text == "/start" {
		userStates[chatID] = &UserState{
			Stage:        StageInitial,
			Symbol:       appCfg.Symbol,
			Timeframe:    appCfg.Timeframe,
			LastActivity: time.Now(),
		}
		state = userStates[chatID]

		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Welcome to the Stock Dashboard Bot!\nCurrent target: %s on %s. What would you like to do?",
			state.Symbol, state.Timeframe))
		msg.ReplyMarkup = getMainMenuKeyboard()
		bot.Send(msg)
		return
	}
	state.LastActivity = time.Now()

	switch message.Text {
	case "Main Menu":
		msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
		msg.ReplyMarkup = getMainMenuKeyboard()
		bot.Send(msg)
		state.Stage = StageInitial
	case "Select Stock":
		sendSymbolMenu(bot, chatID)
		state.Stage = StageAwaitingSymbol
	case "Select Timeframe":
		if state.Symbol == "" {
			bot.Send(tgbotapi.NewMessage(chatID, "Please select a stock first."))
			sendSymbolMenu(bot, chatID)
			state.Stage = StageAwaitingSymbol
		} else {
			sendTimeframeMenu(bot, chatID)
			state.Stage = StageAwaitingTimeframe
		}
	case "Run Scan":
		if state.Symbol == "" || state.Timeframe == "" {
			msg := tgbotapi.NewMessage(chatID, "Please select both stock and timeframe before running a scan.")
			msg.ReplyMarkup = getMainMenuKeyboard()
			bot.Send(msg)
			state.Stage = StageInitial
		} else {
			runScan(bot, chatID, state.Symbol, state.Timeframe, false)
		}
	case "Recent Scans":
		sendRecentScans(bot, chatID, state)
	case "Schedule Scans":
		subscribeChat(bot, chatID, state)
	case "Stop Schedule":
		if sched.Unsubscribe(chatID) {
			bot.Send(tgbotapi.NewMessage(chatID, "Scheduled scans stopped for this chat."))
		} else {
			bot.Send(tgbotapi.NewMessage(chatID, "This chat has no scheduled scans."))
		}
	default:
		if state.Stage == StageAwaitingSymbol {
			handleSymbolInput(bot, chatID, state, message.Text)
			return
		}
		msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
		msg.ReplyMarkup = getMainMenuKeyboard()
		bot.Send(msg)
	}
}

// handleSymbolInput accepts a typed stock symbol
func handleSymbolInput(bot *tgbotapi.BotAPI, chatID int64, state *UserState, text string) {
	symbol := strings.ToUpper(strings.TrimSpace(text))
	if !symbolPattern.MatchString(symbol) {
		bot.Send(tgbotapi.NewMessage(chatID, "That does not look like a stock symbol. Try something like 2330."))
		return
	}

	state.Symbol = symbol
	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Selected stock: %s\nNow select a timeframe.", symbol)))
	sendTimeframeMenu(bot, chatID)
	state.Stage = StageAwaitingTimeframe
}

// handleCallback processes inline keyboard selections
func handleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	state, exists := userStates[chatID]
	if !exists {
		userStates[chatID] = &UserState{
			Stage:        StageInitial,
			Symbol:       appCfg.Symbol,
			Timeframe:    appCfg.Timeframe,
			LastActivity: time.Now(),
		}
		state = userStates[chatID]
	}
	state.LastActivity = time.Now()

	// Acknowledge the callback query
	bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	switch {
	case strings.HasPrefix(data, "sym_"):
		state.Symbol = strings.TrimPrefix(data, "sym_")
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Selected stock: %s\nNow select a timeframe.", state.Symbol)))
		sendTimeframeMenu(bot, chatID)
		state.Stage = StageAwaitingTimeframe
	case strings.HasPrefix(data, "tf_"):
		state.Timeframe = strings.TrimPrefix(data, "tf_")
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Selected timeframe: %s\nYou can now run a scan.", state.Timeframe))
		msg.ReplyMarkup = getMainMenuKeyboard()
		bot.Send(msg)
		state.Stage = StageInitial
	case data == "run_scan":
		if state.Symbol == "" || state.Timeframe == "" {
			msg := tgbotapi.NewMessage(chatID, "Please select both stock and timeframe before running a scan.")
			msg.ReplyMarkup = getMainMenuKeyboard()
			bot.Send(msg)
			state.Stage = StageInitial
			return
		}
		runScan(bot, chatID, state.Symbol, state.Timeframe, false)
	case data == "main_menu":
		msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
		msg.ReplyMarkup = getMainMenuKeyboard()
		bot.Send(msg)
		state.Stage = StageInitial
	}
}

// runScan executes the pipeline for one chat and reports the result
func runScan(bot *tgbotapi.BotAPI, chatID int64, symbol, timeframe string, scheduled bool) {
	heading := fmt.Sprintf("Scanning %s on %s...", symbol, timeframe)
	if scheduled {
		heading = fmt.Sprintf("Scheduled scan: %s on %s", symbol, timeframe)
	}
	bot.Send(tgbotapi.NewMessage(chatID, heading))

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	res, err := runner.Run(ctx, symbol, timeframe)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, scanErrorText(symbol, err)))
		return
	}

	bot.Send(tgbotapi.NewMessage(chatID, report.FormatSummary(res.DisplayName, res.Symbol, res.Timeframe, res.Rows, res.Verdict)))

	withNarrative := false
	if narrator != nil {
		commentary, err := narrator.Commentary(ctx, res.Payload)
		if err != nil {
			botMetrics.NarrativeFailures.Inc()
			log.Warn().Err(err).Str("symbol", symbol).Msg("Commentary unavailable")
		} else {
			withNarrative = true
			bot.Send(tgbotapi.NewMessage(chatID, "🤖 "+commentary))
		}
	}

	last := res.LastRow()
	entry := journal.Entry{
		Symbol:    res.Symbol,
		Timeframe: res.Timeframe,
		Label:     string(res.Verdict.Label),
		Score:     res.Verdict.Score,
		Reasons:   res.Verdict.Reasons,
		Price:     last.Bar.Close,
		Narrative: withNarrative,
	}
	if err := journalStore.Record(ctx, entry); err != nil {
		botMetrics.JournalErrors.Inc()
		log.Warn().Err(err).Str("symbol", symbol).Msg("Journal write failed")
	}
}

// runScheduledScan is the cron entry point
func runScheduledScan(bot *tgbotapi.BotAPI, sub scheduler.Subscription) {
	runScan(bot, sub.ChatID, sub.Symbol, sub.Timeframe, true)
}

// scanErrorText maps pipeline failures to chat-sized explanations
func scanErrorText(symbol string, err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidConfig):
		return "The scan configuration was rejected. Check the indicator settings."
	case errors.Is(err, models.ErrNoData):
		return fmt.Sprintf("No candle data for %s. Check the symbol or try during trading hours.", symbol)
	case errors.Is(err, models.ErrInsufficientData):
		return fmt.Sprintf("Not enough bars for %s on that timeframe yet. Try a shorter one.", symbol)
	default:
		return "The scan failed. Please try again later."
	}
}

// sendRecentScans replies with the journal tail for the chat's stock
func sendRecentScans(bot *tgbotapi.BotAPI, chatID int64, state *UserState) {
	if state.Symbol == "" {
		bot.Send(tgbotapi.NewMessage(chatID, "Please select a stock first."))
		sendSymbolMenu(bot, chatID)
		state.Stage = StageAwaitingSymbol
		return
	}
	if appCfg.Journal.Driver == "" || appCfg.Journal.Driver == "off" || appCfg.Journal.Driver == "none" {
		bot.Send(tgbotapi.NewMessage(chatID, "The scan journal is disabled."))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := journalStore.Recent(ctx, state.Symbol, 5)
	if err != nil {
		botMetrics.JournalErrors.Inc()
		log.Warn().Err(err).Str("symbol", state.Symbol).Msg("Journal read failed")
		bot.Send(tgbotapi.NewMessage(chatID, "Could not read the scan journal."))
		return
	}
	if len(entries) == 0 {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("No journaled scans for %s yet.", state.Symbol)))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Recent scans for %s:\n", state.Symbol))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s  %s  %s (%+.1f) @ %.2f\n",
			e.CreatedAt.Format("01-02 15:04"), e.Timeframe, e.Label, e.Score, e.Price))
	}
	bot.Send(tgbotapi.NewMessage(chatID, sb.String()))
}

// subscribeChat registers the chat for cron-driven scans
func subscribeChat(bot *tgbotapi.BotAPI, chatID int64, state *UserState) {
	if appCfg.Telegram.CronSpec == "" {
		bot.Send(tgbotapi.NewMessage(chatID, "Scheduled scans are not configured on this bot."))
		return
	}
	if state.Symbol == "" || state.Timeframe == "" {
		bot.Send(tgbotapi.NewMessage(chatID, "Please select both stock and timeframe before scheduling."))
		return
	}

	sched.Subscribe(scheduler.Subscription{ChatID: chatID, Symbol: state.Symbol, Timeframe: state.Timeframe})
	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Scheduled scans enabled for %s on %s. Use Stop Schedule to turn them off.",
		state.Symbol, state.Timeframe)))
}

func getMainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Select Stock"),
			tgbotapi.NewKeyboardButton("Select Timeframe"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Run Scan"),
			tgbotapi.NewKeyboardButton("Recent Scans"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Schedule Scans"),
			tgbotapi.NewKeyboardButton("Stop Schedule"),
		),
	)
}

func sendSymbolMenu(bot *tgbotapi.BotAPI, chatID int64) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, symbol := range popularSymbols {
		if i%4 == 0 && i > 0 {
			keyboard = append(keyboard, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(symbol, "sym_"+symbol))
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("← Back to Main Menu", "main_menu"),
	})

	msg := tgbotapi.NewMessage(chatID, "Select a stock, or type any symbol:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	bot.Send(msg)
}

func sendTimeframeMenu(bot *tgbotapi.BotAPI, chatID int64) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, tf := range models.Timeframes() {
		if i%3 == 0 && i > 0 {
			keyboard = append(keyboard, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(tf, "tf_"+tf))
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("← Back to Main Menu", "main_menu"),
	})

	msg := tgbotapi.NewMessage(chatID, "Select a timeframe:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	bot.Send(msg)
}
