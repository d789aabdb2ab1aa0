package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kiku/internal/extract"
)

var indexCmd = &cobra.Command{
	Use:   "index [file|directory]...",
	Short: "Upload documents to the running Kiku server for indexing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectPaths(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no supported documents found (want .pdf or .docx)")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.postFiles(cmd.Context(), "/api/v1/documents", paths)
		if err != nil {
			return err
		}

		var result struct {
			Message string `json:"message"`
			Files   int    `json:"files"`
			Chunks  int    `json:"chunks"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		fmt.Printf("%s (%d files, %d chunks)\n", result.Message, result.Files, result.Chunks)
		return nil
	},
}

// collectPaths expands the arguments into a flat list of supported document
// paths. Directories are read one level deep.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if extract.Supported(arg) {
				paths = append(paths, arg)
			}
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !extract.Supported(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(dst, f)
	return err
}
