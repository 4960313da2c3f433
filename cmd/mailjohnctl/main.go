// mailjohnctl es la herramienta de administración que opera directo
// contra la base: alta de cuentas, api keys y limpieza de tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/config"
	"github.com/dropDatabas3/mailjohn/internal/security/password"
	"github.com/dropDatabas3/mailjohn/internal/store/core"
	"github.com/dropDatabas3/mailjohn/internal/store/pg"
)

func main() {
	var configPath string

	var store *pg.Store
	ctx := context.Background()

	root := &cobra.Command{
		Use:   "mailjohnctl",
		Short: "Administración de MailJohn (directo a la base)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("falta storage.dsn (o DATABASE_DSN)")
			}
			store, err = pg.New(ctx, cfg.Storage.DSN, pg.Options{})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if store != nil {
				store.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path al YAML de configuración")

	// ─── account ───

	accountCmd := &cobra.Command{Use: "account", Short: "Operaciones sobre cuentas"}

	var accEmail, accName, accPassword string
	accountCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una cuenta",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accEmail == "" || accPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			hash, err := password.Hash(password.Default, accPassword)
			if err != nil {
				return err
			}
			acc := &core.Account{Email: accEmail, Name: accName, PasswordHash: hash}
			if err := store.CreateAccount(ctx, acc); err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			fmt.Printf("cuenta creada: id=%s email=%s\n", acc.ID, acc.Email)
			return nil
		},
	}
	accountCreateCmd.Flags().StringVar(&accEmail, "email", "", "Email de la cuenta")
	accountCreateCmd.Flags().StringVar(&accName, "name", "", "Nombre visible")
	accountCreateCmd.Flags().StringVar(&accPassword, "password", "", "Password inicial")
	accountCmd.AddCommand(accountCreateCmd)

	// ─── apikey ───

	apikeyCmd := &cobra.Command{Use: "apikey", Short: "Operaciones sobre api keys"}

	var keyAccount, keyName string
	var keyTest bool
	apikeyCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una api key (la key y el secret salen una única vez)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyAccount == "" || keyName == "" {
				return fmt.Errorf("--account y --name son requeridos")
			}
			pair, err := apikey.NewPair(!keyTest)
			if err != nil {
				return err
			}
			k := &core.APIKey{
				AccountID:  keyAccount,
				Name:       keyName,
				KeyPrefix:  apikey.Mask(pair.Key),
				KeyHash:    apikey.HashKey(pair.Key),
				SecretHash: apikey.HashSecret(pair.Secret),
			}
			if err := store.CreateAPIKey(ctx, k); err != nil {
				return fmt.Errorf("create api key: %w", err)
			}
			fmt.Printf("api key creada: id=%s\n", k.ID)
			fmt.Printf("  key:    %s\n", pair.Key)
			fmt.Printf("  secret: %s\n", pair.Secret)
			fmt.Println("guardalos ahora: no se pueden recuperar después")
			return nil
		},
	}
	apikeyCreateCmd.Flags().StringVar(&keyAccount, "account", "", "ID de la cuenta")
	apikeyCreateCmd.Flags().StringVar(&keyName, "name", "", "Nombre de la key")
	apikeyCreateCmd.Flags().BoolVar(&keyTest, "test", false, "Generar key sk_test_ en vez de sk_live_")
	apikeyCmd.AddCommand(apikeyCreateCmd)

	var revokeAccount, revokeID string
	apikeyRevokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revocar una api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if revokeAccount == "" || revokeID == "" {
				return fmt.Errorf("--account y --id son requeridos")
			}
			if _, err := store.RevokeAPIKey(ctx, revokeAccount, revokeID); err != nil {
				return fmt.Errorf("revoke: %w", err)
			}
			fmt.Println("revocada")
			return nil
		},
	}
	apikeyRevokeCmd.Flags().StringVar(&revokeAccount, "account", "", "ID de la cuenta")
	apikeyRevokeCmd.Flags().StringVar(&revokeID, "id", "", "ID de la api key")
	apikeyCmd.AddCommand(apikeyRevokeCmd)

	var listAccount string
	apikeyListCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar api keys de una cuenta",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAccount == "" {
				return fmt.Errorf("--account es requerido")
			}
			keys, err := store.ListAPIKeys(ctx, listAccount)
			if err != nil {
				return err
			}
			for _, k := range keys {
				last := "-"
				if k.LastUsedAt != nil {
					last = k.LastUsedAt.Format(time.RFC3339)
				}
				fmt.Printf("%s  %-20s %-8s %s  last_used=%s\n", k.ID, k.Name, k.Status, k.KeyPrefix, last)
			}
			return nil
		},
	}
	apikeyListCmd.Flags().StringVar(&listAccount, "account", "", "ID de la cuenta")
	apikeyCmd.AddCommand(apikeyListCmd)

	// ─── tokens ───

	var purgeAccount string
	tokensPurgeCmd := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Borrar refresh tokens vencidos (default: todas las cuentas)",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store.PurgeExpiredRefreshTokens(ctx, purgeAccount)
			if err != nil {
				return err
			}
			fmt.Printf("purgados: %d\n", n)
			return nil
		},
	}
	tokensPurgeCmd.Flags().StringVar(&purgeAccount, "account", "", "Limitar a una cuenta (opcional)")

	root.AddCommand(accountCmd, apikeyCmd, tokensPurgeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
