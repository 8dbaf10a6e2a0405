package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration (mirrors .stmtext.yaml)
const defaultConfigYAML = `
extract:
  default_type: none
  reference_prefix: TXN
  workers: 0
metadata:
  known_banks:
    - {signature: standard chartered, name: Standard Chartered}
    - {signature: bank of america, name: Bank of America}
    - {signature: wells fargo, name: Wells Fargo}
    - {signature: jpmorgan chase, name: Chase}
    - {signature: chase, name: Chase}
    - {signature: citibank, name: Citibank}
    - {signature: capital one, name: Capital One}
    - {signature: american express, name: American Express}
    - {signature: hsbc, name: HSBC}
    - {signature: barclays, name: Barclays}
    - {signature: lloyds, name: Lloyds Bank}
    - {signature: natwest, name: NatWest}
    - {signature: santander, name: Santander}
    - {signature: maybank, name: Maybank}
    - {signature: cimb, name: CIMB}
    - {signature: dbs bank, name: DBS}
    - {signature: ocbc, name: OCBC}
statement:
  SCB_CASA:
    signatures: [standard chartered, stanchart, sc.com]
    stop_keywords: [total, summary, closing balance, interest]
    skip_keywords: [balance brought forward, balance forward, opening balance, brought forward]
    table_header: '(?i)\bdate\b.*\bbalance\b'
    reference_prefix: SC
    day_first: true
serve:
  port: "8080"
import:
  db_url: ""
  timeout: 300`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "stmtext [filename]",
		Short: "Extract transactions from statement text",
		Long:  `stmtext extracts transactions and statement metadata from OCR or text-layer output of bank, card and ledger statements`,
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
				runExtract(extractCmd, []string{})
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.stmtext.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".stmtext")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("STMTEXT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			viper.SetConfigType("yaml")
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}
