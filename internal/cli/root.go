package cli

import (
	"fmt"
	"os"
	"time"

	"butterfly/internal/client"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	BaseURL  string
	APIKey   string
	APIExtra string
	Format   string // "json" | "text"

	// RedisAddr включает кэш списка меню; пусто - без кэша
	RedisAddr string
	CacheTTL  time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func (o *RootOptions) client() *client.Client {
	c := client.New(o.BaseURL, o.APIKey, o.APIExtra)
	if o.RedisAddr != "" {
		c.UseRedisCache(redis.NewClient(&redis.Options{Addr: o.RedisAddr}), o.CacheTTL)
	}
	return c
}

// NewRootCommand creates the root command of the admin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "butterflyctl",
		Short: "Butterfly restaurant admin CLI",
		Long:  "Manage bookings and the menu of a running Butterfly API server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.BaseURL, "url", envOr("BUTTERFLY_URL", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", os.Getenv("BUTTERFLY_API_KEY"), "admin API key")
	cmd.PersistentFlags().StringVar(&opts.APIExtra, "api-extra", os.Getenv("BUTTERFLY_API_EXTRA"), "admin API extra secret")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis-addr", os.Getenv("BUTTERFLY_REDIS_ADDR"), "redis address for caching the menu listing")
	cmd.PersistentFlags().DurationVar(&opts.CacheTTL, "cache-ttl", 5*time.Minute, "menu cache lifetime")

	cmd.AddCommand(NewBookingsCommand(opts))
	cmd.AddCommand(NewMenuCommand(opts))
	cmd.AddCommand(NewPingCommand(opts))
	cmd.AddCommand(NewValidateMenuCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
