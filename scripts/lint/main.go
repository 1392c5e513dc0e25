// If you are AI: This script enforces repository conventions on Go sources.
// It checks AI headers, function doc comments and the per-file line limit in one pass.

package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	defaultMaxLines = 300
	aiHeader        = "If you are AI:"
)

// main runs the lint command and exits non-zero on violations.
func main() {
	if err := newLintCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// newLintCommand constructs the root command.
func newLintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lint <directory>",
		Short:         "Check Go sources for headers, function comments and file length",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxLines, _ := cmd.Flags().GetInt("max-lines")
			failures, err := lintTree(args[0], maxLines)
			if err != nil {
				return fmt.Errorf("walk %s: %w", args[0], err)
			}
			if len(failures) > 0 {
				out := cmd.ErrOrStderr()
				fmt.Fprintln(out, "Lint violations:")
				for _, f := range failures {
					fmt.Fprintf(out, "  %s\n", f)
				}
				return fmt.Errorf("%d violations", len(failures))
			}
			return nil
		},
	}
	cmd.Flags().Int("max-lines", defaultMaxLines, "Maximum lines per Go file")
	return cmd
}

// lintTree checks every Go file below root.
// Directories named vendor or testdata and those starting with "_" or "." are skipped, as the go tool does.
func lintTree(root string, maxLines int) ([]string, error) {
	var failures []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "vendor" || name == "testdata" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		failures = append(failures, lintFile(path, data, maxLines)...)
		return nil
	})

	return failures, err
}

// lintFile returns the violations in one file.
// Test files are exempt from the header and comment rules but not from the line limit.
func lintFile(path string, data []byte, maxLines int) []string {
	var failures []string
	content := string(data)

	if lines := strings.Count(content, "\n"); lines > maxLines {
		failures = append(failures, fmt.Sprintf("%s: %d lines (max %d)", path, lines, maxLines))
	}
	if strings.HasSuffix(path, "_test.go") {
		return failures
	}

	if !strings.Contains(content, aiHeader) {
		failures = append(failures, fmt.Sprintf("%s: missing '%s' header", path, aiHeader))
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		// Skip files that don't parse (might be generated)
		return failures
	}

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Doc == nil || len(fn.Doc.List) == 0 {
			pos := fset.Position(fn.Pos())
			failures = append(failures, fmt.Sprintf("%s:%d: function %s missing comment", path, pos.Line, fn.Name.Name))
		}
	}
	return failures
}
