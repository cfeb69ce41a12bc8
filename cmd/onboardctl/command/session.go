package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careplus/onboarding/enrollment"
	"github.com/careplus/onboarding/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and repair the enrollment session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted enrollment session",
	Long:  "The show command prints the checkpointed enrollment session, including its stage and any recorded failure",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(showSession) },
}

func showSession(orchestrator *enrollment.Orchestrator) error {
	session, err := orchestrator.Session(context.TODO())
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))

	return nil
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the persisted enrollment session",
	Long:  "The reset command deletes a stuck enrollment session so the patient can start over",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(resetSession) },
}

func resetSession(kv store.KV) error {
	if err := kv.Delete(context.TODO(), store.KeyEnrollmentSession); err != nil {
		return err
	}
	fmt.Println("enrollment session deleted")

	return nil
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}
