package main

import (
	"fmt"

	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
	"github.com/spf13/cobra"
)

var clientIndustry string

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  "Create and list clients without running the server.",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	Args:  cobra.NoArgs,
	RunE:  runClientsList,
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runClientsCreate,
}

func init() {
	clientsCreateCmd.Flags().StringVar(&clientIndustry, "industry", "",
		"Industry of the client")

	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsCreateCmd)
}

func runClientsList(cmd *cobra.Command, args []string) error {
	env, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer env.store.Close()

	clients, err := env.store.ListClients(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"clients": clients,
			"total":   len(clients),
		})
	}

	if len(clients) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No clients found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tINDUSTRY\tCREATED")
	for _, c := range clients {
		industry := "-"
		if c.Industry != nil && *c.Industry != "" {
			industry = *c.Industry
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, industry, c.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runClientsCreate(cmd *cobra.Command, args []string) error {
	if vErr := validation.ValidateRequired("name", args[0]); vErr != nil {
		return vErr.Err()
	}

	env, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer env.store.Close()

	in := types.NewClient{Name: args[0]}
	if clientIndustry != "" {
		in.Industry = &clientIndustry
	}

	c, err := env.store.CreateClient(commandContext(cmd), in)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created client %q (id: %s)\n", c.Name, c.ID)
	return nil
}
