package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/model"
)

func newAccountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Browse and extend the chart of accounts",
	}
	cmd.AddCommand(newAccountListCommand(), newAccountAddCommand())
	return cmd
}

func newAccountListCommand() *cobra.Command {
	var class int
	var accountType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			accts := b.accounts.All()
			switch {
			case class > 0:
				accts = b.accounts.ByClass(class)
			case accountType != "":
				accts = b.accounts.ByType(model.AccountType(accountType))
			}
			printer(cmd).Accounts(accts)
			return nil
		},
	}
	cmd.Flags().IntVar(&class, "class", 0, "SYSCOHADA class 1-9")
	cmd.Flags().StringVar(&accountType, "type", "", "asset, liability, equity, revenue or expense")
	return cmd
}

func newAccountAddCommand() *cobra.Command {
	var accountType, parent, description string

	cmd := &cobra.Command{
		Use:   "add <code> <name>",
		Short: "Add an account to the chart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			a := model.Account{
				Code:        args[0],
				Name:        args[1],
				Type:        model.AccountType(accountType),
				ParentCode:  parent,
				Description: description,
			}
			if err := b.accounts.Add(a); err != nil {
				return err
			}
			if err := b.accounts.Save(b.root); err != nil {
				return fmt.Errorf("writing chart of accounts: %w", err)
			}
			b.commit("accounts: add " + a.Code)
			printer(cmd).Success("added account %s %s", a.Code, a.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&accountType, "type", "", "asset, liability, equity, revenue or expense (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&parent, "parent", "", "parent account code")
	cmd.Flags().StringVar(&description, "description", "", "account description")
	return cmd
}
