package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"consultpay/internal/logger"
)

var Version = "dev"

// @title           ConsultPay API
// @version         1.0
// @description     Consultant booking payments and wallet settlement.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:           "consultpay",
		Short:         "ConsultPay - booking payments and consultant wallets",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
