// Package bot serves the calculator over Telegram.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/calc-bot/internal/bot/handlers"
	"github.com/Proton-105/calc-bot/internal/bot/keyboard"
	"github.com/Proton-105/calc-bot/internal/calculator"
	errors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/i18n"
	"github.com/Proton-105/calc-bot/internal/idempotency"
	"github.com/Proton-105/calc-bot/internal/middleware"
	"github.com/Proton-105/calc-bot/internal/state"
	"github.com/Proton-105/calc-bot/internal/user"
	"github.com/Proton-105/calc-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	translator         i18n.Translator
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
	userService        *user.Service
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	fsm state.StateMachine,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
	userService *user.Service,
	translator i18n.Translator,
	errHandler *errors.Handler,
) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Server.WebhookPort,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := newBot(cfg, log, fsm, idempotencyManager, userService, translator, errHandler)
	b.telebot = tb
	b.rateLimitMw = rateLimitMw

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

func newBot(
	cfg config.Config,
	log *slog.Logger,
	fsm state.StateMachine,
	idempotencyManager idempotency.Manager,
	userService *user.Service,
	translator i18n.Translator,
	errHandler *errors.Handler,
) *Bot {
	if errHandler == nil {
		errHandler = errors.NewHandler(log, cfg.Sentry.Enabled)
	}

	dispatcher := NewDispatcher(fsm, log)

	b := &Bot{
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		router:             NewRouter(dispatcher, log),
		dispatcher:         dispatcher,
		keyboard:           keyboard.NewBuilder(translator),
		translator:         translator,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
		userService:        userService,
	}

	b.setupRouter()

	return b
}

// Start publishes the command list and runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot == nil {
		return
	}

	commands := make([]telebot.Command, 0, len(commandDescriptions))
	for _, cmd := range commandDescriptions {
		commands = append(commands, telebot.Command{Text: middleware.CommandName(cmd.Command), Description: cmd.Description})
	}
	if err := b.telebot.SetCommands(commands); err != nil {
		b.log.Warn("failed to publish bot commands", slog.Any("error", err))
	}

	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil {
		return
	}

	b.router.Use(RequestContextMiddleware)
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.cfg.Idempotency.TTL, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(AuthMiddleware(b.userService, b.log))
	b.router.Use(LastActiveMiddleware(b.userService))
	b.router.Use(middleware.Metrics)

	deps := handlers.Deps{
		FSM:        b.fsm,
		Keyboard:   b.keyboard,
		Translator: b.translator,
		Log:        b.log,
	}
	if layout := b.cfg.Session.TimeLayout; layout != "" {
		deps.CalculatorOptions = append(deps.CalculatorOptions, calculator.WithTimeLayout(layout))
	}

	reset := handlers.NewResetHandler(deps)
	history := handlers.NewHistoryHandler(deps)
	clearHistory := handlers.NewClearHistoryHandler(deps)
	help := handlers.NewHelpHandler(deps)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps))
	b.router.RegisterCommand(CommandReset, reset)
	b.router.RegisterCommand(CommandCancel, reset)
	b.router.RegisterCommand(CommandHistory, history)
	b.router.RegisterCommand(CommandClearHistory, clearHistory)
	b.router.RegisterCommand(CommandHelp, help)

	b.router.RegisterCallback(keyboard.UniqueCalc, handlers.NewKeypadHandler(deps))
	b.router.RegisterCallback(keyboard.UniqueHistory, handlers.NewHistoryPageHandler(deps))
	b.router.RegisterCallback(keyboard.UniqueRecall, handlers.NewRecallHandler(deps))

	menu := map[string]handlers.Handler{
		keyboard.MenuCalculator:   handlers.NewShowKeypadHandler(deps),
		keyboard.MenuHistory:      history,
		keyboard.MenuClearHistory: clearHistory,
		keyboard.MenuHelp:         help,
	}
	for _, key := range keyboard.MenuKeys {
		label := key
		if b.translator != nil {
			label = b.translator.T(key)
		}
		b.router.RegisterText(label, menu[key])
	}

	input := handlers.NewKeyInputHandler(deps)
	b.dispatcher.RegisterStateHandler(state.StateIdle, input)
	b.dispatcher.RegisterStateHandler(state.StateAwaitingOperand, input)
	b.dispatcher.RegisterStateHandler(state.StateError, handlers.NewErrorStateHandler(deps))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
