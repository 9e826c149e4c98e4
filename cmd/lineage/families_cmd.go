package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/lineage/internal/store"
)

func newFamiliesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "families",
		Short: "List families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.ListFamilies(cmd.Context())
			if err != nil {
				return storeError(err)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			name, err := s.CreateFamily(cmd.Context(), args[0])
			if err != nil {
				return storeError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a family and all of its trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return storeError(s.DeleteFamily(cmd.Context(), args[0]))
		},
	})

	return cmd
}

func newTreesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trees <family>",
		Short: "List the trees saved under a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.ListTrees(cmd.Context(), args[0])
			if err != nil {
				return storeError(err)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <family> <file>",
		Short: "Print a saved tree document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			tree, err := s.GetTree(cmd.Context(), args[0], args[1])
			if err != nil {
				return storeError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(tree.Content))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <family> <file> <new-name>",
		Short: "Rename a saved tree",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			name, err := s.RenameTree(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return storeError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <family> <file>",
		Short: "Delete a saved tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return storeError(s.DeleteTree(cmd.Context(), args[0], args[1]))
		},
	})

	return cmd
}

// storeError tags store failures with an exit code. Missing or conflicting
// names are validation errors.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrExists),
		errors.Is(err, store.ErrInvalidName), errors.Is(err, store.ErrInvalidContent):
		return withCode(exitValidation, err)
	default:
		return withCode(exitStore, err)
	}
}
