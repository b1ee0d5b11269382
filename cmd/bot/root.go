package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivanoskov/nutrition_bot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "nutrition-bot",
	Short: "Telegram bot that calculates daily water, calories and macros",
	Long: `nutrition-bot asks a user for sex, age, weight, height and activity level
and calculates daily water, energy and macronutrient needs.`,
	SilenceUsage: true,
}

// Execute запускает корневую команду
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "Path to .env file (default .env in the working directory)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	if envFile == "" {
		return config.LoadConfig()
	}
	return config.LoadConfig(envFile)
}
