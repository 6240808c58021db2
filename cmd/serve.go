package cmd

import (
	"fmt"
	"time"

	"github.com/labstack/gommon/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fieldstone-cms/sitecheck/internal/cmdutil"
	"github.com/fieldstone-cms/sitecheck/pkg/build"
	"github.com/fieldstone-cms/sitecheck/pkg/config"
	"github.com/fieldstone-cms/sitecheck/pkg/gateway"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
)

// defaultPort is the default port to run the results gateway on.
const defaultPort = 3000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recorded passes over HTTP",
	Long: wordwrap.WrapString(
		"Start a read-only HTTP server exposing recorded QA passes and their "+
			"step results as JSON. Scans are still started from the CLI; the "+
			"server only reports on them.",
		80),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load[config.Config]()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		store, err := cmdutil.OpenResultsStore(cmd.Context(), cfg.Repo)
		if err != nil {
			return err
		}
		defer store.Close()

		server := gateway.New(passes.API{Repo: store})

		// print banner after short delay to ensure it only appears if no errors
		// occurred during startup
		timer := time.NewTimer(time.Second)
		defer timer.Stop()
		go func() {
			<-timer.C
			cmd.Println(banner(build.Version, cfg.Gateway.Port, cfg.Repo.DatabasePath()))
		}()

		return server.Start(cmd.Context(), fmt.Sprintf(":%d", cfg.Gateway.Port))
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", defaultPort, "Port to run the HTTP server on")
	cobra.CheckErr(viper.BindPFlag("gateway.port", serveCmd.Flags().Lookup("port")))

	rootCmd.AddCommand(serveCmd)
}

func banner(version string, port int, storePath string) string {
	return fmt.Sprintf(
		`
%s sitecheck %s

Read-only QA results API
Store  %s
------------------------------
⇨ HTTP server started on %s`,
		color.Cyan("⬢"),
		color.Red(version),
		color.Grey(storePath),
		color.Green(fmt.Sprintf("http://localhost:%d", port)),
	)
}
