package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/BobConanDev/db-sub001/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storage read protocol",
	Long:  "Expose the configured storage backend's read surface over HTTP for remote connections.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default: :8090)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	store, err := newStore(cmd.Context())
	if err != nil {
		return err
	}

	addr := viper.GetString("listen")
	log.Info("serving storage",
		zap.String("listen", addr),
		zap.String("method", store.Method()),
	)
	return server.New(store, log).Listen(addr)
}
