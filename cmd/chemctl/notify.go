package main

import (
	"fmt"

	"chemsafe-go/internal/config"
	"chemsafe-go/pkg/fcm"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	notifyTokens []string
	notifyTitle  string
	notifyBody   string
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Push notification tooling",
	}

	test := &cobra.Command{
		Use:   "test",
		Short: "Send a test push notification to one or more FCM tokens",
		RunE:  runNotifyTest,
	}
	test.Flags().StringSliceVarP(&notifyTokens, "token", "t", nil, "FCM registration token (repeatable)")
	test.Flags().StringVar(&notifyTitle, "title", "Test Bildirimi 🔔", "Notification title")
	test.Flags().StringVar(&notifyBody, "body", "Bu bir test bildirimidir.", "Notification body")
	_ = test.MarkFlagRequired("token")

	cmd.AddCommand(test)
	return cmd
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	client, err := fcm.NewClient(cmd.Context(), config.Conf.Notification)
	if err != nil {
		return err
	}

	fmt.Println(color.CyanString("Sending test notification to %d token(s)...", len(notifyTokens)))
	result := client.SendEach(cmd.Context(), notifyTokens, notifyTitle, notifyBody, map[string]string{"type": "test"})
	for _, err := range result.Errors {
		fmt.Printf("%s %v\n", color.RedString("✗"), err)
	}
	fmt.Printf("%s sent: %d, failed: %d\n", color.GreenString("✓"), result.SuccessCount, result.FailureCount)
	if result.FailureCount > 0 {
		return fmt.Errorf("%d notification(s) failed", result.FailureCount)
	}
	return nil
}
