package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"chemsafe-go/internal/app"
	"chemsafe-go/internal/config"
	"chemsafe-go/internal/model"
	"chemsafe-go/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	generateKind     string
	generateSubject  string
	generateLanguage string
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Resolve one document through the cache and print it as JSON",
		Long: `Runs the same cache-aside resolution as the HTTP API and prints the document.

Example:
  chemctl generate --kind safety --subject acetone`,
		RunE: runGenerate,
	}
	cmd.Flags().StringVarP(&generateKind, "kind", "k", string(model.KindSafety), "Document kind (safety, technical, product)")
	cmd.Flags().StringVarP(&generateSubject, "subject", "s", "", "Product or chemical name")
	cmd.Flags().StringVarP(&generateLanguage, "language", "l", "", "Output language (defaults per kind)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, err := model.ParseDocumentKind(generateKind)
	if err != nil {
		return err
	}

	cfg := config.Conf
	// 命令行生成不发送推送
	cfg.Notification.Mode = app.NotifyNone
	a, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.DocumentService.Resolve(cmd.Context(), service.ResolveRequest{
		Kind:     kind,
		Subject:  generateSubject,
		Language: generateLanguage,
	})
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Data, "", "  "); err != nil {
		return err
	}
	source := color.YellowString("generated")
	if result.Cached {
		source = color.GreenString("cache")
	}
	fmt.Fprintf(os.Stderr, "%s %s (%s)\n", color.CyanString(string(kind)), generateSubject, source)
	fmt.Println(pretty.String())
	return nil
}
