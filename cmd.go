package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "redcore [bind-addr]",
	Short: "redcore is an in-memory key-value server speaking a RESP subset",
	Long: `redcore is a lightweight in-memory key-value store that speaks a
subset of the Redis wire protocol (RESP): strings, lists, and key
expiry over a plain TCP socket.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServer,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./redcore.yaml)")
	rootCmd.Flags().String("host", "", "bind host (overrides config)")
	rootCmd.Flags().Int("port", 0, "bind port (overrides config)")
	rootCmd.Flags().Int("max-clients", 0, "max concurrent clients (0 = unlimited)")
	rootCmd.Flags().String("log-level", "", "log level (trace|debug|info|warn|error|fatal)")
	rootCmd.Flags().Bool("enable-persist", false, "append mutating commands to a journal file")

	viper.BindPFlag("host", rootCmd.Flags().Lookup("host"))
	viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	viper.BindPFlag("max_clients", rootCmd.Flags().Lookup("max-clients"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("enable_persist", rootCmd.Flags().Lookup("enable-persist"))

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// runServer wires Config -> Server and blocks serving until a fatal
// error or external shutdown, mirroring the teacher's runServer.
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if len(args) == 1 {
		host, port, err := splitBindAddr(args[0])
		if err != nil {
			return err
		}
		cfg.Host = host
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return err
	}

	WatchForChanges(func(updated *Config) {
		srv.reaper.SetInterval(updated.ReaperInterval)
	})

	installSignalHandler(srv)

	return srv.Start(cfg.BindAddr())
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "print the resolved configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.String())
		return nil
	},
}

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the redcore version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("redcore", version)
	},
}

func splitBindAddr(addr string) (string, int, error) {
	var host string
	var port int
	n, err := fmt.Sscanf(addr, "%[^:]:%d", &host, &port)
	if err != nil || n != 2 {
		return "", 0, fmt.Errorf("invalid bind address %q, expected host:port", addr)
	}
	return host, port, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "redcore:", err)
	os.Exit(1)
}
