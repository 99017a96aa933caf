// This file is part of matstrip
//
// Command mat is a thin CLI front-end over the core sanitizer: it
// exercises registry.CreateStripper end to end but does not attempt
// the full front-end (progress reporting, batch recursion over
// directories, leaf-format plugins) spec.md §1 places out of core
// scope.
//
// Copyright (c) 2026 matstrip Contributors
// Licensed under the MIT License
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matstrip/internal/config"
	"matstrip/internal/obslog"
	"matstrip/internal/registry"
	"matstrip/internal/stripper"
)

var (
	flagBackup        bool
	flagAdd2Archive   bool
	flagLowPDFQuality bool
	flagVerbose       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mat",
		Short: "Recursive, container-aware metadata sanitizer",
		Long: `mat strips privacy-sensitive metadata from files in place, recursing
into ZIP and tar archives (including OpenDocument and Office OpenXML
documents) so that nested files are sanitized too.`,
	}

	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug-level logging")
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(listFormatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <files...>",
		Short: "Sanitize one or more files in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obslog.SetVerbose(flagVerbose)

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			opts := cfg.Options()
			if cmd.Flags().Changed("backup") {
				opts.Backup = flagBackup
			}
			if cmd.Flags().Changed("add2archive") {
				opts.Add2Archive = flagAdd2Archive
			}
			if cmd.Flags().Changed("low-pdf-quality") {
				opts.LowPDFQuality = flagLowPDFQuality
			}

			return cleanAll(args, opts)
		},
	}

	cmd.Flags().BoolVar(&flagBackup, "backup", true, "keep a .bak copy of the original file")
	cmd.Flags().BoolVar(&flagAdd2Archive, "add2archive", false, "keep unsupported entries instead of dropping them")
	cmd.Flags().BoolVar(&flagLowPDFQuality, "low-pdf-quality", false, "allow the PDF leaf handler to downsample images")

	return cmd
}

func cleanAll(paths []string, opts stripper.Options) error {
	var failures int

	for _, path := range paths {
		if err := cleanOne(path, opts); err != nil {
			fmt.Fprintf(os.Stderr, "mat: %s: %v\n", path, err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failures, len(paths))
	}
	return nil
}

func cleanOne(path string, opts stripper.Options) error {
	s, err := registry.CreateStripper(path, true, opts)
	if err != nil {
		return err
	}

	handle, ok := s.(interface{ Release() error })
	if ok {
		defer handle.Release()
	}

	ok2, err := s.RemoveAll()
	if err != nil {
		return err
	}
	if !ok2 {
		return fmt.Errorf("sanitization did not complete")
	}

	fmt.Printf("cleaned %s\n", path)
	return nil
}

func listFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-formats",
		Short: "List recognized container formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range registry.ListSupportedFormats() {
				fmt.Printf("%-55s %-12s %s\n", f.MIME, f.Extension, f.Description)
			}
			return nil
		},
	}
}
