package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/platform"
	"github.com/EdwardH92/CliffDive/internal/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check platform detection and storage health interactively",
	Long:  `Check how CliffDive would classify a URL, or verify that the configured storage backend is reachable and readable.`,
}

var checkPlatformCmd = &cobra.Command{
	Use:   "platform URL",
	Short: "Check platform detection for a URL",
	Long:  `Check which AI platform CliffDive would attribute a page URL to.`,
	Example: `  cliffdive check platform https://chat.openai.com/c/abc123
  cliffdive check platform https://claude.ai/chat`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckPlatform,
}

var checkStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check storage backend health",
	Long:  `Open the configured storage backend and read the persisted usage snapshot.`,
	Example: `  cliffdive -c config.yaml check storage`,
	RunE:    runCheckStorage,
}

var checkCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Check the platform catalog for duplicate domains",
	Long:  `Scan the built-in platform catalog for domains that appear more than once.`,
	RunE:  runCheckCatalog,
}

func init() {
	checkCmd.AddCommand(checkPlatformCmd)
	checkCmd.AddCommand(checkStorageCmd)
	checkCmd.AddCommand(checkCatalogCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheckPlatform(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", rawURL)
	}

	match, ok := platform.Detect(rawURL)
	printPlatformResult(parsed, match, ok)
	return nil
}

func runCheckStorage(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := store.Usage().Load(ctx)
	printStorageResult(cfg, snap, err)

	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("storage check failed: %w", err)
	}
	return nil
}

func runCheckCatalog(cmd *cobra.Command, args []string) error {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	seen := make(map[string]string, len(platform.Catalog))
	var dupes []string
	for _, d := range platform.Catalog {
		if prev, ok := seen[d.Domain]; ok {
			dupes = append(dupes, fmt.Sprintf("%s (%s, %s)", d.Domain, prev, d.Name))
			continue
		}
		seen[d.Domain] = d.Name
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("PLATFORM CATALOG CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Entries:    %d\n", len(platform.Catalog))
	fmt.Println()

	cyan.Print("Status:     ")
	if len(dupes) == 0 {
		green.Println("OK")
		fmt.Println("            → All domains are unique")
	} else {
		red.Println("DUPLICATES")
		for _, d := range dupes {
			fmt.Printf("            → %s\n", d)
		}
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if len(dupes) > 0 {
		return fmt.Errorf("%d duplicate domains in catalog", len(dupes))
	}
	return nil
}

// printPlatformResult prints the platform check result with colors
func printPlatformResult(parsed *url.URL, match *platform.Match, tracked bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("PLATFORM DETECTION CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("URL:        %s\n", parsed.String())
	fmt.Printf("Host:       %s\n", parsed.Hostname())
	fmt.Println()

	cyan.Print("Decision:   ")
	if tracked {
		green.Println("TRACKED")
		fmt.Printf("            Platform:   %s\n", match.Name)
		fmt.Printf("            Domain:     %s\n", match.Domain)
		fmt.Printf("            Category:   %s\n", match.Category)
		fmt.Printf("            Confidence: %s\n", match.Confidence)
		fmt.Println("            → Page signals will be classified and sessions tracked")
	} else {
		red.Println("UNTRACKED")
		fmt.Println("            → No catalog entry matches this host")
		fmt.Println("            → Signals from this page will be ignored")
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// printStorageResult prints the storage check result with colors
func printStorageResult(cfg *config.Config, snap *storage.Snapshot, err error) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("STORAGE HEALTH CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Type:       %s\n", cfg.Storage.Type)
	if cfg.Storage.Type == "redis" {
		fmt.Printf("Host:       %s\n", cfg.Redis.Host)
	} else {
		fmt.Printf("Path:       %s\n", cfg.Storage.Path)
	}
	fmt.Println()

	cyan.Print("Status:     ")
	switch {
	case err == nil:
		green.Println("OK")
		fmt.Printf("            Sessions:   %d\n", len(snap.Sessions))
		fmt.Printf("            Platforms:  %d\n", len(snap.PlatformUsage))
		fmt.Printf("            Days:       %d\n", len(snap.DailyStats))
	case errors.Is(err, storage.ErrNotFound):
		yellow.Println("EMPTY")
		fmt.Println("            → Backend reachable, no usage data persisted yet")
	default:
		red.Println("ERROR")
		fmt.Printf("            → %v\n", err)
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}
