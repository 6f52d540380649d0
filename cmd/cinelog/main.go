package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cinelog/internal/adapter"
	"github.com/mmcdole/cinelog/internal/adapter/source/api"
	"github.com/mmcdole/cinelog/internal/catalog"
	"github.com/mmcdole/cinelog/internal/domain"
	"github.com/mmcdole/cinelog/internal/lists"
	"github.com/mmcdole/cinelog/internal/logbook"
	"github.com/mmcdole/cinelog/internal/session"
	"github.com/mmcdole/cinelog/internal/stats"
	"github.com/mmcdole/cinelog/internal/store"
	"github.com/mmcdole/cinelog/internal/suggest"
	"github.com/mmcdole/cinelog/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func main() {
	var (
		showVersion bool
		logout      bool
		setToken    bool
		clearCache  bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&logout, "logout", false, "forget the server URL and token")
	flag.BoolVar(&setToken, "token", false, "prompt for a new session token")
	flag.BoolVar(&clearCache, "clear-cache", false, "delete cached details and draft lists")
	flag.Parse()

	if showVersion {
		fmt.Printf("cinelog %s\n", Version)
		return
	}

	if err := run(logout, setToken, clearCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logout, setToken, clearCache bool) error {
	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting cinelog", "version", Version)

	switch {
	case logout:
		if err := adapter.ClearServerConfig(); err != nil {
			return err
		}
		fmt.Println("✓ Signed out.")
		return nil
	case clearCache:
		if err := adapter.ClearCache(cfg); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared.")
		return nil
	case setToken:
		token, err := promptToken()
		if err != nil {
			return err
		}
		if err := adapter.SaveToken(token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		cfg.Server.Token = token
	}

	// Check if configured
	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg, logger); err != nil {
			return err
		}
	}

	sess := session.FromToken(cfg.Server.Token, time.Now(), logger)
	client := api.NewClient(cfg.Server.URL, sess, logger,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithRetry(cfg.Server.Retries, 500*time.Millisecond),
	)

	localStore, err := store.NewLocalStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		logger.Warn("failed to open cache, using memory only", "error", err)
		localStore, _ = store.NewLocalStore("", "")
	}
	defer localStore.Close()

	// Create services
	catalogSvc := catalog.NewService(client, localStore, logger)
	logbookSvc := logbook.NewService(client, sess, logger)
	listSvc := lists.NewService(localStore, logger)
	statsLoader := stats.NewLoader(catalogSvc, logbookSvc, sess, logger)

	// Create TUI model
	model := tui.NewModel(tui.Deps{
		API:     client,
		Catalog: catalogSvc,
		Logbook: logbookSvc,
		Lists:   listSvc,
		Stats:   statsLoader,
		Logger:  logger,
	}, tui.Options{
		Search: suggest.Options{
			Delay:     cfg.Search.Debounce(),
			MinChars:  cfg.Search.MinChars,
			CacheSize: cfg.Search.CacheSize,
			CacheTTL:  cfg.Search.CacheTTL,
			Timeout:   cfg.Server.Timeout,
		},
		Units:         stats.UnitsFor(cfg.UI.DurationUnits),
		StatusTimeout: cfg.UI.StatusTimeout,
		DefaultList:   cfg.UI.DefaultList,
	})

	// Run the TUI
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logger.Info("starting TUI", "anonymous", sess.Anonymous(), "user", sess.Username)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *adapter.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to cinelog!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// Loop until we get a reachable server URL
	var serverURL string
	for {
		fmt.Print("Enter your API URL (e.g., https://example.com/api): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimRight(strings.TrimSpace(input), "/")

		if serverURL == "" {
			fmt.Println("API URL cannot be empty. Please try again.")
			continue
		}
		if u, err := url.Parse(serverURL); err != nil || u.Scheme == "" || u.Host == "" {
			fmt.Println("That does not look like a URL. Please try again.")
			continue
		}

		fmt.Println()
		if err := checkServerWithSpinner(serverURL, logger); err != nil {
			fmt.Printf("\n✗ Could not reach the server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	fmt.Println()
	fmt.Println("Paste your session token, or leave it empty to browse anonymously.")
	token, err := promptToken()
	if err != nil {
		return err
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}

// promptToken reads a token without echo when stdin is a terminal
func promptToken() (string, error) {
	fmt.Print("Token: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// checkServerWithSpinner probes the suggestion endpoint with a visual spinner.
// Any HTTP answer counts as reachable.
func checkServerWithSpinner(serverURL string, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := api.NewClient(serverURL, domain.Session{}, logger, api.WithRetry(0, 0))

	resultCh := make(chan error, 1)
	go func() {
		_, err := client.Suggest(ctx, "cinelog")
		resultCh <- err
	}()

	frame := 0
	fmt.Printf("\r%s Contacting server...", spinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if errors.Is(err, domain.ErrServerOffline) {
				return err
			}
			fmt.Println("✓ Server reachable")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Contacting server...", spinnerFrames[frame%len(spinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("timed out")
		}
	}
}
