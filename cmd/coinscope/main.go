// CoinScope — crypto & market dashboard backend
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/coinscope/api"
	"github.com/seenimoa/coinscope/internal/config"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/internal/providers"
	"github.com/seenimoa/coinscope/internal/store"
	"github.com/seenimoa/coinscope/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coinscope",
	Short: "CoinScope — crypto, NFT, stock, and news dashboard backend",
	Long: `CoinScope aggregates cryptocurrency listings, NFT collections, delayed
stock quotes, and market news from public APIs into a single dashboard,
with admin-managed manual listings and rotating promo banners.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(coinsCmd)
	rootCmd.AddCommand(quoteCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("CoinScope %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			srv.SetServeUI(false)
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting CoinScope API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Bool("no-ui", false, "disable the embedded web UI")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  CoinScope — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):  %s\n", time.Now().UTC().Format(time.RFC3339))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Config File:  %s\n", config.ConfigFilePath())
		fmt.Printf("    Data Dir:     %s\n", cfg.Storage.DataDir)
		fmt.Printf("    LLM Provider: %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Printf("    Watchlist:    %s\n", strings.Join(cfg.Board.StockWatchlist, ", "))
		fmt.Println()

		var stored config.APIKeys
		if st, err := store.Open(cfg.Storage.DataDir); err == nil {
			st.Load(store.KeyAPIKeys, &stored)
		}

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg, stored) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Coins Command ---

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Print the top coins by market cap",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		reg, err := providers.BuildRegistry(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res, err := reg.Fetch(ctx, provider.ModelCoinList, provider.QueryParams{
			provider.ParamLimit: fmt.Sprintf("%d", limit),
		})
		if err != nil {
			return err
		}
		coins, ok := res.Data.([]models.Coin)
		if !ok {
			return fmt.Errorf("unexpected payload %T", res.Data)
		}

		fmt.Printf("%-5s %-8s %-24s %14s %10s\n", "RANK", "SYMBOL", "NAME", "PRICE", "24H %")
		for _, c := range coins {
			fmt.Printf("%-5d %-8s %-24s %14.2f %9.2f%%\n",
				c.Rank, strings.ToUpper(c.Symbol), c.Name, c.Price, c.ChangePercent24h)
		}
		return nil
	},
}

func init() {
	coinsCmd.Flags().Int("limit", 20, "number of coins to print")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [symbol]",
	Short: "Print a delayed stock quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := strings.ToUpper(args[0])

		reg, err := providers.BuildRegistry(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		res, err := reg.Fetch(ctx, provider.ModelStockQuote, provider.QueryParams{
			provider.ParamSymbol: symbol,
		})
		if err != nil {
			return err
		}
		q, ok := res.Data.(*models.StockQuote)
		if !ok {
			return fmt.Errorf("unexpected payload %T", res.Data)
		}

		fmt.Printf("%s  %.2f  %+.2f (%+.2f%%)\n", q.Symbol, q.Price, q.Change, q.ChangePercent)
		fmt.Printf("  open %.2f  high %.2f  low %.2f  prev %.2f  vol %d\n",
			q.Open, q.High, q.Low, q.PrevClose, q.Volume)
		return nil
	},
}
