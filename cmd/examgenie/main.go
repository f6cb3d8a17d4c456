package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/gwenythashlie/examgenie/internal/exam"
	"github.com/gwenythashlie/examgenie/internal/extract"
	"github.com/gwenythashlie/examgenie/internal/handler"
	appI18n "github.com/gwenythashlie/examgenie/internal/i18n"
	"github.com/gwenythashlie/examgenie/internal/llm"
	"github.com/gwenythashlie/examgenie/internal/model"
	"github.com/gwenythashlie/examgenie/internal/session"
	"github.com/gwenythashlie/examgenie/internal/storage"
	"github.com/gwenythashlie/examgenie/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examgenie",
		Short: "Exam generator and runner backed by uploaded study material",
	}

	serve := serveCmd()
	root.AddCommand(serve, takeCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examgenie --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "examgenie.db", "SQLite database path")
	f.String("data-dir", "./data", "Directory for uploaded reviewer files")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM (empty disables generation)")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "Language for API messages (en, es)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.Int64("max-upload-mb", 20, "Maximum reviewer upload size in MiB")
	f.String("admin-password", "", "Initial admin password (or set EXAMGENIE_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take an exam interactively in the terminal",
		RunE:  runTake,
	}
	f := cmd.Flags()
	f.String("db", "examgenie.db", "SQLite database path")
	f.String("exam-id", "", "Exam to take (required)")
	f.StringP("user", "u", "", "Username of the exam owner (required)")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam-id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all attempts for an exam as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "examgenie.db", "SQLite database path")
	f.String("exam-id", "", "Exam to export (required)")
	f.StringP("user", "u", "", "Username of the exam owner (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam-id")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMGENIE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examgenie")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examgenie")
	v.AddConfigPath("/etc/examgenie")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	blobs, err := storage.NewFSStore(v.GetString("data-dir"))
	if err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if llmClient == nil {
		slog.Warn("no LLM API key configured, exams will use fallback questions")
	} else {
		if err := llmClient.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	svc := exam.NewService(db, llmClient)

	cfg := model.ServerConfig{
		DataDir:       v.GetString("data-dir"),
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
		MaxUploadMB:   v.GetInt64("max-upload-mb"),
	}
	h := handler.New(db, svc, blobs, extract.New(), cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"data_dir", cfg.DataDir,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByUsername(v.GetString("user"))
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %q not found", v.GetString("user"))
	}

	svc := exam.NewService(db, nil)
	e, err := svc.GetExam(user.ID, v.GetString("exam-id"))
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}

	sess := session.New(func(answers map[string]string, timeTakenSeconds int) (string, error) {
		attempt, err := svc.SubmitExam(user.ID, e.ID, answers, timeTakenSeconds)
		if err != nil {
			return "", err
		}
		return attempt.ID, nil
	})
	if err := sess.Start(*e); err != nil {
		return err
	}
	defer sess.Dispose()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go sess.Run(ctx)

	// The read loop blocks on stdin, so announce timer expiry from here the
	// moment it happens instead of after the next line of input.
	go func() {
		for sess.State() == session.StateInProgress {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
		if sess.TimeRemaining() == 0 {
			fmt.Println("\ntime is up, submitting collected answers (press enter)")
		}
	}()

	fmt.Printf("%s (%s, %d questions, %d minutes)\n",
		e.Title, e.Difficulty, len(e.Questions), e.TimeLimitMinutes)
	fmt.Println(`Commands: a <answer>, n(ext), p(rev), g(oto) <num>, submit, quit`)

	printQuestion(e, 0)

	scanner := bufio.NewScanner(os.Stdin)
	for sess.State() == session.StateInProgress && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, rest, _ := strings.Cut(line, " ")

		switch verb {
		case "a", "answer":
			q := e.Questions[sess.CurrentIndex()]
			answer := resolveAnswer(q, strings.TrimSpace(rest))
			if err := sess.SelectAnswer(q.ID, answer); err != nil {
				break
			}
			fmt.Printf("recorded: %s\n", answer)
			printQuestion(e, sess.Navigate(sess.CurrentIndex()+1))
		case "n", "next":
			printQuestion(e, sess.Navigate(sess.CurrentIndex()+1))
		case "p", "prev":
			printQuestion(e, sess.Navigate(sess.CurrentIndex()-1))
		case "g", "goto":
			num, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				fmt.Println("usage: g <question number>")
				continue
			}
			printQuestion(e, sess.Navigate(num-1))
		case "t", "time":
			rem := sess.TimeRemaining()
			fmt.Printf("%d:%02d remaining, %d/%d answered\n",
				rem/60, rem%60, len(sess.Answers()), len(e.Questions))
		case "submit":
			if err := sess.Submit(); err != nil {
				fmt.Printf("submit failed: %v (type submit to retry)\n", err)
			}
		case "quit", "q":
			fmt.Println("abandoned, nothing was saved")
			return nil
		default:
			fmt.Println("unknown command")
		}

		// A failed submit leaves the session retryable.
		if sess.State() == session.StateSubmitting && sess.Err() != nil {
			if err := sess.RetrySubmit(); err != nil && err != session.ErrNoFailedSubmit {
				fmt.Printf("retry failed: %v\n", err)
			}
		}
	}

	// A timer-driven submit may still be in flight; wait for it to settle.
	for sess.State() != session.StateCompleted && sess.Err() == nil {
		time.Sleep(50 * time.Millisecond)
	}
	if err := sess.Err(); err != nil {
		return fmt.Errorf("submit attempt: %w", err)
	}

	attempt, err := svc.GetAttempt(user.ID, sess.AttemptID())
	if err != nil {
		return fmt.Errorf("load attempt: %w", err)
	}
	fmt.Printf("\nScore: %.1f%% (took %ds)\n", attempt.Score, attempt.TimeTakenSeconds)
	for i, q := range e.Questions {
		rec := attempt.Answers[q.ID]
		mark := "✗"
		if rec.IsCorrect {
			mark = "✓"
		}
		given := "(no answer)"
		if rec.UserAnswer != nil {
			given = *rec.UserAnswer
		}
		fmt.Printf("%s %2d. %s\n     yours: %s  correct: %s\n", mark, i+1, q.Text, given, rec.CorrectAnswer)
	}
	return nil
}

// resolveAnswer lets the learner type an option letter (a-d) instead of the
// full option text for multiple-choice questions.
func resolveAnswer(q model.Question, input string) string {
	if len(input) == 1 && len(q.Options) > 0 {
		idx := int(strings.ToLower(input)[0]) - 'a'
		if idx >= 0 && idx < len(q.Options) {
			return q.Options[idx]
		}
	}
	return input
}

func printQuestion(e *model.Exam, index int) {
	if index < 0 || index >= len(e.Questions) {
		return
	}
	q := e.Questions[index]
	fmt.Printf("\n%d/%d: %s\n", index+1, len(e.Questions), q.Text)
	for i, opt := range q.Options {
		fmt.Printf("  %c) %s\n", 'a'+i, opt)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByUsername(v.GetString("user"))
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %q not found", v.GetString("user"))
	}

	export, err := db.ExportExamResults(user.ID, v.GetString("exam-id"))
	if err != nil {
		return fmt.Errorf("export exam results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EXAMGENIE_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
