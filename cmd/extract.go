package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aqlanhadi/stmtext/extractor"
	"github.com/aqlanhadi/stmtext/extractor/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	extractType            string
	extractTransactionOnly bool
	extractStatementOnly   bool
	extractSimple          bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts statement(s)",
	Long: `Extracts transactions from a statement file or from every .txt/.pdf
file in a directory and prints the result as JSON.`,
	Run: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) {
	target := viper.GetString("target")
	opts := extractor.LoadOptions(viper.GetViper())
	opts.Logger = logrus.StandardLogger()
	hint := common.DocumentType("")
	if extractType != "" {
		hint = common.ParseDocumentType(extractType)
	}

	logrus.WithField("target", target).Info("scanning")

	var docs []common.Document
	var err error
	if extractSimple {
		docs, err = extractSimpleAt(target, hint, opts)
	} else {
		docs, err = extractor.ProcessPath(context.Background(), target, hint, opts)
	}
	if err != nil {
		logrus.WithError(err).Error("extraction finished with errors")
		if len(docs) == 0 {
			os.Exit(1)
		}
	}

	var output interface{}
	if len(docs) == 1 {
		output = extractor.CreateFinalOutput(docs[0], extractTransactionOnly, extractStatementOnly)
	} else {
		outputs := make([]interface{}, 0, len(docs))
		for _, doc := range docs {
			outputs = append(outputs, extractor.CreateFinalOutput(doc, extractTransactionOnly, extractStatementOnly))
		}
		output = outputs
	}

	asJSON, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(asJSON))
}

func extractSimpleAt(path string, hint common.DocumentType, opts extractor.Options) ([]common.Document, error) {
	text, err := common.ReadText(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := extractor.ExtractSimple(text, hint, opts)
	doc.Source = path
	return []common.Document{doc}, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("file", "f", ".", "File or folder to extract")
	extractCmd.Flags().StringVarP(&extractType, "type", "t", "", "Document type hint: bank, creditcard, ledger or none")
	extractCmd.Flags().BoolVar(&extractTransactionOnly, "transactions-only", false, "Print only the transaction list")
	extractCmd.Flags().BoolVar(&extractStatementOnly, "statement-only", false, "Print only the statement summary")
	extractCmd.Flags().BoolVar(&extractSimple, "simple", false, "Use the legacy path (grid and line heuristic) on a single file")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("file"))
}
