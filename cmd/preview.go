package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/shadowtpl/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:     "preview",
	Aliases: []string{"p"},
	Short:   "Start the preview server with hot reload",
	Long: `Start a development server that renders every discovered template with
its sample projection and reloads connected browsers when template files
change on disk.

Examples:
  shadowtpl preview                   # Serve on the configured host/port
  shadowtpl preview --port 3000       # Override the port`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().Int("port", 8080, "Preview server port")
	previewCmd.Flags().String("host", "localhost", "Preview server host")
	viper.BindPFlag("preview.port", previewCmd.Flags().Lookup("port"))
	viper.BindPFlag("preview.host", previewCmd.Flags().Lookup("host"))
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := preview.NewServer(cfg, logger)
	return server.Start(ctx)
}
