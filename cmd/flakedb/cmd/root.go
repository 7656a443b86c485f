package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BobConanDev/db-sub001/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "flakedb",
	Short: "Content-addressed ledger storage CLI",
	Long:  "CLI for writing, reading and serving flakedb ledger blocks across storage backends.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/flakedb/config.yaml)")
	rootCmd.PersistentFlags().String("method", "", "storage backend: memory, file, s3, remote (default: file)")
	rootCmd.PersistentFlags().String("storage-path", "", "file backend base directory (default: ~/.local/share/flakedb)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	viper.BindPFlag("method", rootCmd.PersistentFlags().Lookup("method"))
	viper.BindPFlag("storage_path", rootCmd.PersistentFlags().Lookup("storage-path"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FLAKEDB")
	viper.AutomaticEnv()
	viper.SetDefault("method", "file")
	viper.SetDefault("storage_path", defaultStoragePath())
	viper.SetDefault("listen", ":8090")
	viper.SetDefault("compression", true)

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flakedb")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "flakedb")
	}
	return ".flakedb"
}

func defaultStoragePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "flakedb")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "flakedb")
	}
	return ".flakedb"
}

// newStore builds the configured storage backend.
func newStore(ctx context.Context) (storage.Store, error) {
	switch method := viper.GetString("method"); method {
	case "memory":
		return storage.NewMemoryStore(storage.DefaultNamespace), nil
	case "file":
		return storage.NewFileStore(viper.GetString("storage_path"), storage.FileOptions{
			Compression: viper.GetBool("compression"),
		})
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket: viper.GetString("s3_bucket"),
			Prefix: viper.GetString("s3_prefix"),
		})
	case "remote":
		return storage.NewRemoteStore(ctx, storage.RemoteOptions{
			Servers: strings.Split(viper.GetString("servers"), ","),
			Logger:  newLogger(),
		})
	default:
		return nil, fmt.Errorf("unknown storage method %q", method)
	}
}

// newLogger builds a console zap logger honoring the debug setting.
func newLogger() *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.InfoLevel
	if viper.GetBool("debug") {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)
	return zap.New(core)
}
