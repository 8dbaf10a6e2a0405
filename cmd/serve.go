package cmd

import (
	"github.com/aqlanhadi/stmtext/api"
	"github.com/aqlanhadi/stmtext/extractor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long:  `Starts the HTTP API server that accepts statement text or .txt/.pdf uploads and returns extracted data as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !verbose {
			logrus.SetLevel(logrus.InfoLevel)
		}

		cfg := api.DefaultConfig()
		cfg.Port = ":" + viper.GetString("serve.port")
		cfg.Extract = extractor.LoadOptions(viper.GetViper())
		cfg.Extract.Logger = logrus.StandardLogger()
		cfg.Logger = logrus.StandardLogger()

		server := api.New(cfg)
		if err := server.Start(); err != nil {
			logrus.WithError(err).Fatal("failed to start server")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to run the API server on")
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
}
