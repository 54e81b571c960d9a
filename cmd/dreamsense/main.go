package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/dreamsense/api"
	"github.com/gcbaptista/dreamsense/config"
	"github.com/gcbaptista/dreamsense/internal/analytics"
	internalErrors "github.com/gcbaptista/dreamsense/internal/errors"
	"github.com/gcbaptista/dreamsense/internal/interpret"
	"github.com/gcbaptista/dreamsense/internal/jobs"
	"github.com/gcbaptista/dreamsense/internal/retrieval"
	"github.com/gcbaptista/dreamsense/store"
)

// analyticsRetention is the number of persisted retrieval events kept across restarts.
const analyticsRetention = 10000

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dreamsense",
		Usage: "Dream dictionary retrieval and interpretation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DREAMSENSE_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: append(dictionaryFlags(),
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to run the server on",
						Value:   "8000",
						EnvVars: []string{"DREAMSENSE_PORT"},
					},
					&cli.Int64Flag{
						Name:  "max-body-bytes",
						Usage: "Maximum request body size",
						Value: 1 << 20,
					},
					&cli.Float64Flag{
						Name:    "rate-limit",
						Usage:   "Requests per second across all clients (0 disables limiting)",
						EnvVars: []string{"DREAMSENSE_RATE_LIMIT"},
					},
					&cli.IntFlag{
						Name:  "rate-burst",
						Usage: "Burst size of the rate limiter",
						Value: 10,
					},
					&cli.StringFlag{
						Name:    "llm-host",
						Usage:   "OpenAI-compatible endpoint for /interpret (empty disables it)",
						EnvVars: []string{"DREAMSENSE_LLM_HOST"},
					},
					&cli.StringFlag{
						Name:    "llm-model",
						Usage:   "Model name used for interpretation",
						EnvVars: []string{"DREAMSENSE_LLM_MODEL"},
					},
					&cli.StringFlag{
						Name:    "llm-token",
						Usage:   "API token of the model endpoint",
						EnvVars: []string{"DREAMSENSE_LLM_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "llm-max-tokens",
						Usage: "Generation budget per interpretation",
						Value: 800,
					},
					&cli.Float64Flag{
						Name:  "llm-temperature",
						Usage: "Sampling temperature",
						Value: 0.7,
					},
					&cli.DurationFlag{
						Name:  "request-timeout",
						Usage: "Timeout of a single interpretation",
						Value: 60 * time.Second,
					},
					&cli.StringFlag{
						Name:    "analytics-dir",
						Usage:   "Directory persisting retrieval analytics (empty keeps them in memory)",
						EnvVars: []string{"DREAMSENSE_ANALYTICS_DIR"},
					},
					&cli.IntFlag{
						Name:  "reload-workers",
						Usage: "Maximum concurrent dictionary reload jobs",
						Value: 1,
					},
				),
			},
			{
				Name:      "context",
				Usage:     "Print the dictionary context retrieved for a dream",
				ArgsUsage: "<dream text>",
				Action:    contextCommand,
				Flags:     dictionaryFlags(),
			},
			{
				Name:      "lookup",
				Usage:     "Print one dictionary entry",
				ArgsUsage: "<term>",
				Action:    lookupCommand,
				Flags:     dictionaryFlags(),
			},
		},
	}
}

func dictionaryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dictionary",
			Aliases: []string{"d"},
			Usage:   "Path to the dictionary CSV file (Term, Details, Summary)",
			Value:   "data/dream_dictionary.csv",
			EnvVars: []string{"DREAMSENSE_DICTIONARY"},
		},
		&cli.StringFlag{
			Name:    "sqlite",
			Usage:   "Path to a SQLite database holding the dictionary (overrides --dictionary)",
			EnvVars: []string{"DREAMSENSE_SQLITE"},
		},
		&cli.StringFlag{
			Name:  "sqlite-table",
			Usage: "Table holding the dictionary",
			Value: "dictionary",
		},
	}
}

func serveCommand(c *cli.Context) error {
	settings := config.ServerSettings{
		Port:            c.String("port"),
		DictionaryPath:  c.String("dictionary"),
		SQLitePath:      c.String("sqlite"),
		SQLiteTable:     c.String("sqlite-table"),
		MaxBodyBytes:    c.Int64("max-body-bytes"),
		RateLimit:       c.Float64("rate-limit"),
		RateBurst:       c.Int("rate-burst"),
		LLMHost:         c.String("llm-host"),
		LLMModel:        c.String("llm-model"),
		LLMMaxTokens:    c.Int("llm-max-tokens"),
		LLMTemperature:  c.Float64("llm-temperature"),
		RequestTimeoutS: int(c.Duration("request-timeout").Seconds()),
		AnalyticsDir:    c.String("analytics-dir"),
	}
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid server settings: %s", strings.Join(problems, "; "))
	}

	live := retrieval.NewLive(dictionarySource(settings), dictionaryLoader(settings))
	if live.Degraded() {
		log.Printf("Warning: dictionary unavailable, serving fallback responses: %v", live.InitError())
	}

	manager, err := jobs.NewManager(c.Int("reload-workers"))
	if err != nil {
		return err
	}
	manager.Start()
	defer manager.Stop()

	opts := []api.Option{
		api.WithRequestTimeout(time.Duration(settings.RequestTimeoutS) * time.Second),
		api.WithReloader(live, manager),
	}
	if settings.AnalyticsDir != "" {
		analyticsService, closeStore, err := openAnalytics(live, settings.AnalyticsDir)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, api.WithAnalytics(analyticsService))
	}
	if settings.LLMHost != "" {
		interpreter, err := newInterpreter(live, settings, c.String("llm-token"))
		if err != nil {
			log.Printf("Warning: interpreter disabled: %v", err)
		} else {
			opts = append(opts, api.WithInterpreter(interpreter))
		}
	}

	router := gin.Default()
	api.SetupRoutes(router, live, settings, opts...)

	log.Printf("Starting server on port %s...", settings.Port)
	if err := router.Run(":" + settings.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func contextCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("dream text is required")
	}

	svc := retrieval.Open(dictionaryLoader(settingsFromFlags(c)))
	if svc.Degraded() {
		return fmt.Errorf("failed to load dictionary: %w", svc.InitError())
	}

	dictContext, entries := svc.GenerateContext(text)
	fmt.Fprintln(c.App.Writer, dictContext)
	for i, e := range entries {
		fmt.Fprintf(c.App.Writer, "%d. %s (score: %.2f)\n", i+1, e.Term, e.Score)
	}
	return nil
}

func lookupCommand(c *cli.Context) error {
	term := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(term) == "" {
		return errors.New("term is required")
	}

	svc := retrieval.Open(dictionaryLoader(settingsFromFlags(c)))
	entry, err := svc.Lookup(term)
	if err != nil {
		if errors.Is(err, internalErrors.ErrDegraded) {
			return fmt.Errorf("failed to load dictionary: %w", svc.InitError())
		}
		if suggestions := svc.Suggest(term, 3); len(suggestions) > 0 {
			return fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(suggestions, ", "))
		}
		return err
	}

	fmt.Fprintf(c.App.Writer, "Term: %s\nMeaning: %s\nSummary: %s\n", entry.Term, entry.Details, entry.Summary)
	return nil
}

func settingsFromFlags(c *cli.Context) config.ServerSettings {
	settings := config.ServerSettings{
		DictionaryPath: c.String("dictionary"),
		SQLitePath:     c.String("sqlite"),
		SQLiteTable:    c.String("sqlite-table"),
	}
	settings.ApplyDefaults()
	return settings
}

func dictionarySource(settings config.ServerSettings) string {
	if settings.SQLitePath != "" {
		return settings.SQLitePath + "#" + settings.SQLiteTable
	}
	return settings.DictionaryPath
}

// dictionaryLoader prefers the SQLite source when one is configured.
func dictionaryLoader(settings config.ServerSettings) func() (*store.DictionaryStore, error) {
	if settings.SQLitePath != "" {
		return func() (*store.DictionaryStore, error) {
			return store.LoadSQLiteFile(settings.SQLitePath, settings.SQLiteTable)
		}
	}
	return func() (*store.DictionaryStore, error) {
		return store.LoadCSVFile(settings.DictionaryPath)
	}
}

// openAnalytics restores persisted retrieval events and keeps recording into dir.
func openAnalytics(status analytics.DictionaryStatus, dir string) (*analytics.Service, func(), error) {
	eventStore, err := analytics.OpenBadgerStore(dir)
	if err != nil {
		return nil, nil, err
	}
	if removed, err := eventStore.Prune(analyticsRetention); err != nil {
		log.Printf("Warning: failed to prune analytics store: %v", err)
	} else if removed > 0 {
		slog.Info("pruned analytics events", "removed", removed)
	}

	service := analytics.NewService(status)
	if err := service.AttachStore(eventStore); err != nil {
		_ = eventStore.Close()
		return nil, nil, fmt.Errorf("failed to load analytics events: %w", err)
	}

	return service, func() {
		if err := eventStore.Close(); err != nil {
			log.Printf("Warning: failed to close analytics store: %v", err)
		}
	}, nil
}

func newInterpreter(retriever interpret.Retriever, settings config.ServerSettings, token string) (*interpret.Interpreter, error) {
	model, err := interpret.NewOpenAIModel(interpret.ModelConfig{
		Host:  settings.LLMHost,
		Model: settings.LLMModel,
		Token: token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	return interpret.NewInterpreter(retriever, model,
		interpret.WithMaxTokens(settings.LLMMaxTokens),
		interpret.WithTemperature(settings.LLMTemperature),
	)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	out := c.App.ErrWriter
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	// log.Printf lines carry warnings, keep them visible at --log-level=warn
	slog.SetLogLoggerLevel(slog.LevelWarn)

	return nil
}
