package console

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/internal/usecase"
	"web-page-analyzer/pkg/logg"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool

	lastAnalysis *entity.PageAnalysis
	lastRecords  []entity.ActionRecord
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		stopping: false,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	// Setup signal handler
	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\n⚠️  Interrupt received, shutting down...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")

	i.cancel()

	if i.usecase.Recorder.State() == entity.RecorderRecording {
		if _, err := i.usecase.Recorder.Stop(context.Background()); err != nil {
			i.logger.Warn("Failed to stop recorder", zap.Error(err))
		}
	}

	fmt.Println("👋 Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		if i.usecase.Recorder.State() == entity.RecorderRecording {
			if _, err := i.usecase.Recorder.Stop(i.ctx); err != nil {
				i.logger.Warn("Failed to stop recorder", zap.Error(err))
			}
		}

		return fmt.Errorf("exit")
	case "analyze", "a":
		if len(args) == 0 {
			return fmt.Errorf("usage: analyze <url>")
		}

		return i.analyze(args[0])
	case "record", "r":
		return i.startRecording()
	case "stop", "s":
		return i.stopRecording()
	case "actions":
		i.printActions()

		return nil
	case "save":
		return i.saveAnalysis(firstOr(args, ""))
	case "export":
		return i.saveRecords(firstOr(args, ""))
	case "script":
		return i.writeScript(firstOr(args, ""))
	case "report":
		return i.writeReport(firstOr(args, ""))
	default:
		return fmt.Errorf("unknown command %q, type 'help' for usage", command)
	}
}

func (i *Interface) analyze(url string) error {
	fmt.Printf("\n🔍 Analyzing: %s\n", url)
	fmt.Println("──────────────────────────────────────────────────")

	analysis, err := i.usecase.Analyzer.Analyze(i.ctx, url)
	if err != nil {
		fmt.Printf("\n❌ Analysis failed: %v\n", err)

		return nil
	}

	i.lastAnalysis = analysis

	fmt.Println("\n──────────────────────────────────────────────────")
	fmt.Printf("✅ Analysis completed!\n\n")
	fmt.Printf("Page:     %s\n", analysis.Title)
	fmt.Printf("URL:      %s\n", analysis.URL)
	fmt.Printf("Elements: %d\n", len(analysis.Elements))

	if analysis.Structure != nil {
		fmt.Printf("Forms:    %d\n", analysis.Structure.FormCount)
	}

	counts := map[entity.ElementCategory]int{}
	for _, element := range analysis.Elements {
		counts[element.Category]++
	}

	for _, category := range entity.Categories() {
		if counts[category] > 0 {
			fmt.Printf("  %-12s %d\n", category, counts[category])
		}
	}

	fmt.Println("\nType 'save' to write the result to a JSON file.")

	return nil
}

func (i *Interface) startRecording() error {
	if err := i.usecase.Recorder.Start(i.ctx); err != nil {
		return err
	}

	fmt.Println("\n🔴 Recording started. Interact with the browser window.")
	fmt.Println("Type 'stop' to finish recording.")

	return nil
}

func (i *Interface) stopRecording() error {
	records, err := i.usecase.Recorder.Stop(i.ctx)
	if err != nil {
		return err
	}

	i.lastRecords = records

	fmt.Printf("\n⏹  Recording stopped, %d actions captured.\n", len(records))

	for n, record := range records {
		fmt.Printf("  [%d] %s\n", n+1, record.Description)
	}

	if len(records) > 0 {
		fmt.Println("\nType 'export', 'script' or 'report' to save the session.")
	}

	return nil
}

func (i *Interface) printActions() {
	records := i.usecase.Recorder.Records()
	if len(records) == 0 {
		records = i.lastRecords
	}

	if len(records) == 0 {
		fmt.Println("\nNo recorded actions yet.")

		return
	}

	fmt.Printf("\nRecorded actions (%d):\n", len(records))

	for n, record := range records {
		fmt.Printf("  [%d] %-8s %s\n", n+1, record.Kind, record.Description)
	}
}

func (i *Interface) saveAnalysis(path string) error {
	if i.lastAnalysis == nil {
		return fmt.Errorf("no analysis to save, run 'analyze <url>' first")
	}

	written, err := i.usecase.Export.SaveAnalysis(i.ctx, i.lastAnalysis, path)
	if err != nil {
		return err
	}

	fmt.Printf("💾 Analysis saved to %s\n", written)

	return nil
}

func (i *Interface) saveRecords(path string) error {
	records := i.currentRecords()
	if len(records) == 0 {
		return fmt.Errorf("no recorded actions to export")
	}

	written, err := i.usecase.Export.SaveRecords(i.ctx, records, path)
	if err != nil {
		return err
	}

	fmt.Printf("💾 Actions saved to %s\n", written)

	return nil
}

func (i *Interface) writeScript(path string) error {
	records := i.currentRecords()
	if len(records) == 0 {
		return fmt.Errorf("no recorded actions to script")
	}

	written, err := i.usecase.Export.WriteScript(i.ctx, records, path)
	if err != nil {
		return err
	}

	fmt.Printf("📜 Replay script written to %s\n", written)

	return nil
}

func (i *Interface) writeReport(path string) error {
	records := i.currentRecords()
	if len(records) == 0 {
		return fmt.Errorf("no recorded actions to report")
	}

	written, err := i.usecase.Export.WriteReport(i.ctx, records, path)
	if err != nil {
		return err
	}

	fmt.Printf("📄 Session report written to %s\n", written)

	return nil
}

func (i *Interface) currentRecords() []entity.ActionRecord {
	if records := i.usecase.Recorder.Records(); len(records) > 0 {
		return records
	}

	return i.lastRecords
}

func firstOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}

	return fallback
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║            🔍  Web Page Analyzer  🌐                      ║
║                                                           ║
║   Element inventory, locators and action recording        ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  analyze <url>  - Render the page and build the element inventory
  record         - Start recording browser interactions
  stop           - Stop recording and show the captured actions
  actions        - List actions captured so far
  save [path]    - Save the last analysis as JSON
  export [path]  - Save recorded actions as JSON
  script [path]  - Generate a Python Selenium replay script
  report [path]  - Write a plain-text session report
  help, h        - Show this help message
  exit, quit, q  - Exit the application
`
	fmt.Println(help)
}
