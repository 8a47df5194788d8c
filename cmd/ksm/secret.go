package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Fetch, query and delete secrets",
}

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Inspect shared folders",
}

func init() {
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretNotationCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	folderCmd.AddCommand(folderListCmd)

	secretGetCmd.Flags().Bool("json", false, "print the full record data as JSON")
}

var secretListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all records shared to this client",
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := newClient()
		if err != nil {
			return err
		}
		records, err := sm.GetSecrets(context.Background(), nil)
		if err != nil {
			return err
		}

		fmt.Printf("%-24s %-16s %s\n", "UID", "TYPE", "TITLE")
		for _, r := range records {
			fmt.Printf("%-24s %-16s %s\n", r.Uid, r.Type, r.Title)
		}
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <uid>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := newClient()
		if err != nil {
			return err
		}
		r, err := sm.GetSecretByUid(context.Background(), args[0])
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			raw, err := json.MarshalIndent(r.RecordDict, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		}

		fmt.Printf("UID:    %s\n", r.Uid)
		fmt.Printf("Title:  %s\n", r.Title)
		fmt.Printf("Type:   %s\n", r.Type)
		if r.FolderUid != "" {
			fmt.Printf("Folder: %s\n", r.FolderUid)
		}
		if len(r.Files) > 0 {
			names := make([]string, 0, len(r.Files))
			for _, f := range r.Files {
				names = append(names, f.Name)
			}
			fmt.Printf("Files:  %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

var secretNotationCmd = &cobra.Command{
	Use:   "notation <uri>",
	Short: "Resolve a keeper:// notation query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := newClient()
		if err != nil {
			return err
		}
		value, err := sm.GetNotation(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <uid>...",
	Short: "Delete records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := newClient()
		if err != nil {
			return err
		}
		deleted, err := sm.DeleteSecrets(context.Background(), args)
		if err != nil {
			return err
		}
		if deleted == "" {
			return fmt.Errorf("no records were deleted")
		}
		fmt.Printf("Deleted: %s\n", deleted)
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders shared to this client",
	RunE: func(cmd *cobra.Command, args []string) error {
		sm, err := newClient()
		if err != nil {
			return err
		}
		folders, err := sm.GetFolders(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("%-24s %-24s %s\n", "UID", "PARENT", "NAME")
		for _, f := range folders {
			fmt.Printf("%-24s %-24s %s\n", f.Uid, f.ParentUid, f.Name)
		}
		return nil
	},
}
