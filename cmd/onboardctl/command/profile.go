package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careplus/onboarding/conditions"
	"github.com/careplus/onboarding/profiles"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect the merged patient profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged patient profile",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(showProfile) },
}

func showProfile(service profiles.Service) error {
	profile, err := service.Get(context.TODO())
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))

	return nil
}

var profileConditionsCmd = &cobra.Command{
	Use:   "conditions",
	Short: "List the user-added conditions",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(listConditions) },
}

func listConditions(service conditions.Service) error {
	list, err := service.List(context.TODO())
	if err != nil {
		return err
	}

	for _, condition := range list {
		fmt.Printf("%s %s\n", condition.Category, condition.Name)
	}
	fmt.Printf("Found %v conditions\n", len(list))

	return nil
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileConditionsCmd)
	rootCmd.AddCommand(profileCmd)
}
