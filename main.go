package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hirevox/api"
	"hirevox/interview"
	"hirevox/monitor"
	"hirevox/store"
	"hirevox/stt"
	"hirevox/tts"
	"hirevox/tui"
	"hirevox/vox"
)

var logger *log.Logger

func init() {
	cobra.OnInitialize(initConfig)

	interviewCmd.Flags().String("resume", "", "Path to the candidate's resume PDF")
	interviewCmd.Flags().String("jd", "", "Path to the job description PDF")
	interviewCmd.Flags().String("name", "", "Candidate name")
	interviewCmd.Flags().String("email", "", "Candidate email")
	interviewCmd.Flags().String("position", "", "Position applied for")
	interviewCmd.Flags().
		Bool("plain", false, "Run without the full-screen UI")
	interviewCmd.Flags().
		Int("registration-duration", 10, "Voice registration sample length in seconds")

	registerCmd.Flags().
		Int("duration", 10, "Voice registration sample length in seconds")

	resultsCmd.Flags().
		String("sort", "timestamp", "Sort order: score, name, or timestamp")

	exportCmd.Flags().String("out", "", "Write CSV to this file instead of stdout")

	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(exportCmd)

	// Add persistent flags
	rootCmd.PersistentFlags().String("backend-url", "", "Interview backend base URL")
	rootCmd.PersistentFlags().String("asr-url", "", "Realtime recognition websocket URL")
	rootCmd.PersistentFlags().
		String("asr-api-key", "", "Realtime recognition API key")
	rootCmd.PersistentFlags().
		String("elevenlabs-api-key", "", "ElevenLabs API key")
	rootCmd.PersistentFlags().
		String("results-db", "hirevox.db", "Path to the results database")

	// Bind flags to viper
	viper.BindPFlag(
		"backend_url",
		rootCmd.PersistentFlags().Lookup("backend-url"),
	)
	viper.BindPFlag("asr_url", rootCmd.PersistentFlags().Lookup("asr-url"))
	viper.BindPFlag(
		"asr_api_key",
		rootCmd.PersistentFlags().Lookup("asr-api-key"),
	)
	viper.BindPFlag(
		"elevenlabs_api_key",
		rootCmd.PersistentFlags().Lookup("elevenlabs-api-key"),
	)
	viper.BindPFlag(
		"results_db",
		rootCmd.PersistentFlags().Lookup("results-db"),
	)
}

func initConfig() {
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	logger = log.New(os.Stderr)
}

var rootCmd = &cobra.Command{
	Use:   "hirevox",
	Short: "Hirevox runs voice-driven screening interviews",
	Long:  `Hirevox asks generated interview questions aloud, captures spoken answers, and keeps scored interview records.`,
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a full interview session",
	Run:   runInterview,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the candidate's voice profile",
	Run:   runRegister,
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List stored interview records in a table",
	Run:   runResults,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored interview records as CSV",
	Run:   runExport,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runInterview(cmd *cobra.Command, args []string) {
	mainLogger, talkLogger, hearLogger, dataLogger := createLoggers()

	backendURL := viper.GetString("backend_url")
	if backendURL == "" {
		mainLogger.Fatal("missing BACKEND_URL or --backend-url=")
	}
	asrURL := viper.GetString("asr_url")
	if asrURL == "" {
		mainLogger.Fatal("missing ASR_URL or --asr-url=")
	}

	resumePath, _ := cmd.Flags().GetString("resume")
	jdPath, _ := cmd.Flags().GetString("jd")
	if resumePath == "" || jdPath == "" {
		mainLogger.Fatal("both --resume= and --jd= are required")
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		mainLogger.Fatal("missing --name=")
	}
	email, _ := cmd.Flags().GetString("email")
	position, _ := cmd.Flags().GetString("position")
	plain, _ := cmd.Flags().GetBool("plain")
	regDuration, _ := cmd.Flags().GetInt("registration-duration")

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	client := api.NewClient(backendURL)

	questions, err := client.Upload(ctx, resumePath, jdPath)
	if err != nil {
		mainLogger.Fatal("upload documents", "error", err.Error())
	}
	mainLogger.Info("questions generated", "count", len(questions))

	results := store.Open(viper.GetString("results_db"), dataLogger)
	defer results.Close()

	var generator tts.SpeechGenerator
	if key := viper.GetString("elevenlabs_api_key"); key != "" {
		generator = tts.NewElevenLabsSpeechGenerator(key)
	} else {
		mainLogger.Warn("no ELEVENLABS_API_KEY, questions will not be spoken")
	}

	var sink io.Writer = io.Discard
	if path := viper.GetString("tts_output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			mainLogger.Fatal("open tts output", "error", err.Error())
		}
		defer f.Close()
		sink = f
	}

	engine := stt.NewRealtimeEngine(
		asrURL,
		viper.GetString("asr_api_key"),
		hearLogger,
	)
	channel := vox.New(generator, engine, sink, talkLogger)

	// Proctoring only starts once the voice profile is registered.
	canMonitor := false
	if err := client.StartRegistration(ctx, regDuration); err != nil {
		mainLogger.Error("start voice registration", "error", err.Error())
	} else {
		watcher := monitor.NewRegistrationWatcher(client, mainLogger)
		outcome, err := watcher.Watch(ctx)
		if err != nil {
			mainLogger.Fatal("voice registration", "error", err.Error())
		}
		if outcome.Success {
			mainLogger.Info(outcome.Message)
			canMonitor = true
		} else {
			mainLogger.Error(outcome.Message)
		}
	}

	candidate := store.CandidateInfo{
		Name:     name,
		Email:    email,
		Position: position,
	}

	if plain {
		runPlainInterview(
			ctx, mainLogger, client, channel, results,
			candidate, questions, canMonitor,
		)
		return
	}

	events := make(chan tea.Msg, 32)

	status := monitor.NewStatusWatcher(client, mainLogger)
	status.OnUpdate = func(flags monitor.Flags) {
		events <- tui.FlagsMsg(flags)
	}
	status.OnCancelled = func(message string) {
		events <- tui.AlertMsg{Level: "error", Message: message}
		cancel()
	}

	if canMonitor {
		if err := client.StartMonitoring(ctx); err != nil {
			mainLogger.Error("start audio monitoring", "error", err.Error())
		} else {
			defer client.StopMonitoring(context.Background())
		}
		// The poll loop outlives an interview cancellation; it only ends
		// with the session itself.
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		go status.Run(watchCtx)
	}

	bridge := &tui.Bridge{Events: events}
	orch := interview.New(
		channel, client, results, bridge, bridge, talkLogger,
	)
	orch.OnQuestion = func(index, total int, question string) {
		events <- tui.QuestionMsg{Index: index, Total: total, Question: question}
	}
	orch.OnInterim = func(text string) {
		events <- tui.InterimMsg{Text: text}
	}
	orch.OnAnswer = func(answer string) {
		events <- tui.AnswerMsg{Answer: answer}
	}

	program := tea.NewProgram(
		tui.NewModel(events),
		tea.WithAltScreen(),
	)

	go func() {
		err := orch.Start(ctx, candidate, questions)
		events <- tui.DoneMsg{Err: err}
	}()

	if _, err := program.Run(); err != nil {
		mainLogger.Fatal("run interview ui", "error", err.Error())
	}
}

// runPlainInterview drives the same orchestrator without bubbletea,
// answering retry-or-skip prompts with a terminal form.
func runPlainInterview(
	ctx context.Context,
	mainLogger *log.Logger,
	client *api.Client,
	channel *vox.Channel,
	results *store.Results,
	candidate store.CandidateInfo,
	questions []string,
	canMonitor bool,
) {
	if canMonitor {
		if err := client.StartMonitoring(ctx); err != nil {
			mainLogger.Error("start audio monitoring", "error", err.Error())
		} else {
			defer client.StopMonitoring(context.Background())
		}
		status := monitor.NewStatusWatcher(client, mainLogger)
		status.OnCancelled = func(message string) {
			mainLogger.Error(message)
		}
		go status.Run(ctx)
	}

	orch := interview.New(
		channel,
		client,
		results,
		formConfirmer{},
		logNotifier{logger: mainLogger},
		mainLogger,
	)
	orch.OnQuestion = func(index, total int, question string) {
		fmt.Printf("\nQuestion %d of %d: %s\n", index+1, total, question)
	}
	orch.OnInterim = func(text string) {
		fmt.Printf("\r... %s", text)
	}
	orch.OnAnswer = func(answer string) {
		fmt.Printf("\nAnswer: %s\n", answer)
	}

	if err := orch.Start(ctx, candidate, questions); err != nil {
		mainLogger.Fatal("interview", "error", err.Error())
	}

	pairs := orch.Pairs()
	fmt.Printf("\nInterview complete: %d answers recorded.\n", len(pairs))
}

// formConfirmer resolves the retry-or-skip gate with a terminal select.
type formConfirmer struct{}

func (formConfirmer) Decide(question, reason string) interview.Decision {
	var decision interview.Decision

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[interview.Decision]().
				Title(reason).
				Description(question).
				Options(
					huh.NewOption("Try answering again", interview.Retry),
					huh.NewOption("Skip this question", interview.Skip),
					huh.NewOption("Abort the interview", interview.Abort),
				).
				Value(&decision),
		),
	)

	if err := form.Run(); err != nil {
		return interview.Abort
	}
	return decision
}

type logNotifier struct {
	logger *log.Logger
}

func (n logNotifier) Notify(level, message string) {
	switch level {
	case "error":
		n.logger.Error(message)
	case "warn":
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}

func runRegister(cmd *cobra.Command, args []string) {
	mainLogger, _, _, _ := createLoggers()

	backendURL := viper.GetString("backend_url")
	if backendURL == "" {
		mainLogger.Fatal("missing BACKEND_URL or --backend-url=")
	}
	duration, _ := cmd.Flags().GetInt("duration")

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	client := api.NewClient(backendURL)

	if err := client.StartRegistration(ctx, duration); err != nil {
		mainLogger.Fatal("start voice registration", "error", err.Error())
	}
	mainLogger.Info("recording voice sample", "seconds", duration)

	watcher := monitor.NewRegistrationWatcher(client, mainLogger)
	outcome, err := watcher.Watch(ctx)
	if err != nil {
		mainLogger.Fatal("voice registration", "error", err.Error())
	}

	if outcome.Success {
		mainLogger.Info(outcome.Message)
	} else {
		mainLogger.Fatal(outcome.Message)
	}
}

func runResults(cmd *cobra.Command, args []string) {
	mainLogger, _, _, dataLogger := createLoggers()

	results := store.Open(viper.GetString("results_db"), dataLogger)
	defer results.Close()

	sortKey, _ := cmd.Flags().GetString("sort")
	switch store.SortKey(sortKey) {
	case store.SortByScore, store.SortByName, store.SortByTimestamp:
		results.SortBy(store.SortKey(sortKey))
	default:
		mainLogger.Fatal("unknown sort order", "sort", sortKey)
	}

	records := results.All()
	if len(records) == 0 {
		fmt.Println("No interview records found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Email", "Position", "Score", "Date", "Questions"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, rec := range records {
		table.Append([]string{
			rec.Candidate.Name,
			rec.Candidate.Email,
			rec.Candidate.Position,
			fmt.Sprintf("%.1f", rec.OverallScore),
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", len(rec.QAPairs)),
		})
	}

	table.Render()
}

func runExport(cmd *cobra.Command, args []string) {
	mainLogger, _, _, dataLogger := createLoggers()

	results := store.Open(viper.GetString("results_db"), dataLogger)
	defer results.Close()

	var out io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			mainLogger.Fatal("open output file", "error", err.Error())
		}
		defer f.Close()
		out = f
	}

	if err := results.ExportCSV(out); err != nil {
		mainLogger.Fatal("export records", "error", err.Error())
	}
}

func createLoggers() (mainLogger, talkLogger, hearLogger, dataLogger *log.Logger) {
	logLevel := log.DebugLevel

	logger.SetLevel(logLevel)
	logger.SetReportCaller(true)
	logger.SetCallerFormatter(
		func(file string, line int, funcName string) string {
			path, err := filepath.Rel(".", file)
			if err != nil {
				path = file
			}
			return fmt.Sprintf("%s:%d", path, line)
		},
	)

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.MarginTop(1).
		Bold(false).Transform(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Message = styles.Message.Bold(true).Width(24)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))

	logger.SetStyles(styles)

	mainLogger = logger.With().WithPrefix("main")
	talkLogger = logger.With().WithPrefix("talk")
	hearLogger = logger.With().WithPrefix("hear")
	dataLogger = logger.With().WithPrefix("data")

	return
}
