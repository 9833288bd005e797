package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shopchat"
)

var version = "dev"

func main() {
	var (
		configFile string
		host       string
		port       int
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "shopchat",
		Short: "Conversational shopping assistant server",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(logLevel)

			var opts []shopchat.Option
			if configFile != "" {
				opts = append(opts, shopchat.WithConfigFile(configFile))
			}
			if host != "" {
				opts = append(opts, shopchat.WithHost(host))
			}
			if port != 0 {
				opts = append(opts, shopchat.WithPort(port))
			}
			return shopchat.New(opts...).Start()
		},
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to shopchat.yaml")
	rootCmd.Flags().StringVar(&host, "host", "", "listen host")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("shopchat", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
