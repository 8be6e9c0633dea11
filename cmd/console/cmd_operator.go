package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/technosupport/ts-console/internal/auth"
	"github.com/technosupport/ts-console/internal/data"
	"github.com/technosupport/ts-console/internal/db"
)

var (
	operatorName     string
	operatorRole     string
	operatorPassword string
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage console operators",
}

var operatorAddCmd = &cobra.Command{
	Use:   "add <operator-id>",
	Short: "Create an operator with an argon2id password hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if operatorPassword == "" {
			return errors.New("--password is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sqlDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		hash, err := auth.NewHasher().Hash(operatorPassword)
		if err != nil {
			return err
		}
		op := &auth.Operator{ID: args[0], Name: operatorName, Role: operatorRole, PasswordHash: hash}
		if op.Name == "" {
			op.Name = op.ID
		}
		err = data.OperatorModel{DB: sqlDB}.Create(cmd.Context(), op)
		if errors.Is(err, data.ErrDuplicate) {
			return fmt.Errorf("operator %s already exists", op.ID)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "operator %s created\n", op.ID)
		return nil
	},
}

var operatorHashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print the argon2id hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.NewHasher().Hash(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	operatorAddCmd.Flags().StringVar(&operatorName, "name", "", "display name")
	operatorAddCmd.Flags().StringVar(&operatorRole, "role", "operator", "role")
	operatorAddCmd.Flags().StringVar(&operatorPassword, "password", "", "initial password")
	operatorCmd.AddCommand(operatorAddCmd, operatorHashCmd)
}
