package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/tokenizer"
)

func newIndexCmd(a *app) *cobra.Command {
	var (
		text     string
		excludes []string
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "index NAME [PATTERN...]",
		Short: "Index files or inline text as a named corpus",
		Long: `Index reads every file matching the glob patterns (doublestar syntax,
so "**" crosses directories), splits them into words and stores the
concatenated sequence as one corpus. Files are read in path order.

Examples:
  wdist index books "texts/**/*.txt"
  wdist index notes "docs/*.md" --exclude "docs/draft-*"
  wdist index sample --text "practice makes perfect coding makes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, patterns := args[0], args[1:]
			if text == "" && len(patterns) == 0 {
				return fmt.Errorf("provide at least one file pattern or --text")
			}
			if text != "" && len(patterns) > 0 {
				return fmt.Errorf("file patterns and --text are mutually exclusive")
			}

			words := tokenizer.Split(text)
			if len(patterns) > 0 {
				files, err := matchFiles(patterns, excludes)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return fmt.Errorf("no files match %s", strings.Join(patterns, ", "))
				}
				words, err = readWords(cmd, files, quiet)
				if err != nil {
					return err
				}
			}

			reg, closeStore, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			c, err := reg.Add(cmd.Context(), name, words)
			if err != nil {
				return fmt.Errorf("indexing %q failed: %w", name, err)
			}
			s := c.Summary()
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed corpus %q: %d words, %d distinct\n", s.Name, s.WordCount, s.DistinctWords)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "index this text instead of files")
	cmd.Flags().StringSliceVarP(&excludes, "exclude", "x", nil, "glob patterns to skip")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

// matchFiles expands patterns, drops excluded paths and directories, and
// returns the remaining files sorted and de-duplicated.
func matchFiles(patterns, excludes []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			if _, dup := seen[path]; dup || excluded(path, excludes) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

func excluded(path string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, err := doublestar.PathMatch(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func readWords(cmd *cobra.Command, files []string, quiet bool) ([]string, error) {
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetVisibility(!quiet),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Reading[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
	var words []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		words = append(words, tokenizer.Split(string(data))...)
		bar.Add(1)
	}
	return words, nil
}
