package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurttlocker/lineage/internal/ingest"
)

type importOptions struct {
	out    string
	family string
	name   string
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Convert a relationship text file into a tree document",
		Long: `Convert a relationship text file into a tree document.

Each line describes one person, for example:

  NAME: Bob; PARENTS: Alice, Carl; SPOUSES: Dana; SIBLINGS: Eve; CHILDREN: Finn

The document is printed to stdout unless --out is given. With --family and
--name it is also saved to the store. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the document to this file")
	cmd.Flags().StringVar(&opts.family, "family", "", "Family to save the tree under")
	cmd.Flags().StringVar(&opts.name, "name", "", "Tree file name to save as")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, path string, opts importOptions) error {
	if (opts.family == "") != (opts.name == "") {
		return withCode(exitUsage, errors.New("--family and --name must be given together"))
	}

	engine := a.engine()
	var (
		data []byte
		err  error
	)
	if path == "-" {
		var text []byte
		text, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), engine.Options().MaxFileSize+1))
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		if int64(len(text)) > engine.Options().MaxFileSize {
			return withCode(exitValidation, fmt.Errorf("stdin: %w (max %d bytes)", ingest.ErrFileTooLarge, engine.Options().MaxFileSize))
		}
		data, err = engine.Import(string(text))
	} else {
		data, err = engine.ImportFile(cmd.Context(), path)
	}
	if err != nil {
		if ingest.IsUserError(err) {
			return withCode(exitValidation, err)
		}
		return err
	}

	if opts.family != "" {
		s, err := a.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		saved, err := s.SaveTree(cmd.Context(), opts.family, opts.name, data)
		if err != nil {
			return storeError(fmt.Errorf("saving tree: %w", err))
		}
		a.logger.Info("tree saved", zap.String("family", opts.family), zap.String("file", saved))
	}

	if opts.out != "" {
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", opts.out, err)
		}
		a.logger.Info("document written", zap.String("path", opts.out), zap.Int("bytes", len(data)))
		return nil
	}
	if opts.family != "" {
		return nil
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}
