package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexus-tools/urlharvest/internal/extractor"
)

var (
	inputText     string
	fromClipboard bool
	forceHTML     bool
	showRejected  bool
	numWorkers    int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract URLs from text, files, documents, or the clipboard",
	Long: `Extract URLs from one or more sources and print them normalized, in
order of first appearance.

Sources are positional file arguments, --text, --clipboard, or stdin
when nothing else is given. HTML files have both their link targets and
their visible text scanned; PDF and office documents are converted to
text first.

Examples:
  urlharvest extract notes.txt
  urlharvest extract --clipboard
  urlharvest extract --text "check https://example.com and bit.ly/abc123"
  urlharvest extract --output json --show-rejected bookmarks.html
  cat dump.log | urlharvest extract`,
	Args: cobra.ArbitraryArgs,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	defaults := extractor.DefaultConfig()

	extractCmd.Flags().StringVarP(&inputText, "text", "t", "", "extract from the given text instead of files")
	extractCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "extract from the system clipboard")
	extractCmd.Flags().BoolVar(&forceHTML, "html", false, "treat input as HTML regardless of file extension")
	extractCmd.Flags().BoolVar(&showRejected, "show-rejected", false, "list rejected candidates with their reasons")
	extractCmd.Flags().IntVar(&numWorkers, "workers", runtime.NumCPU(), "number of parallel workers for multiple files")

	extractCmd.Flags().Bool("split", defaults.SplitConcatenated, "split URLs concatenated without whitespace")
	extractCmd.Flags().Bool("add-protocol", defaults.AutoAddProtocol, "prepend https:// to bare domains")
	extractCmd.Flags().Bool("dedupe", defaults.Dedupe, "remove duplicate URLs, keeping first occurrence")
	extractCmd.Flags().Int("max-url-length", defaults.MaxURLLength, "reject URLs longer than this")
	extractCmd.Flags().StringSlice("protocols", defaults.SupportedProtocols, "accepted URL schemes")
	extractCmd.Flags().Duration("match-timeout", defaults.MatchTimeout, "pattern matching time budget per input")
	extractCmd.Flags().Int("max-text-length", defaults.MaxTextLength, "truncate inputs beyond this many bytes (0 = unlimited)")

	// Config file and URLHARVEST_* environment variables feed the same
	// keys; explicit flags win.
	cobra.CheckErr(viper.BindPFlag("split_concatenated", extractCmd.Flags().Lookup("split")))
	cobra.CheckErr(viper.BindPFlag("auto_add_protocol", extractCmd.Flags().Lookup("add-protocol")))
	cobra.CheckErr(viper.BindPFlag("dedupe", extractCmd.Flags().Lookup("dedupe")))
	cobra.CheckErr(viper.BindPFlag("max_url_length", extractCmd.Flags().Lookup("max-url-length")))
	cobra.CheckErr(viper.BindPFlag("supported_protocols", extractCmd.Flags().Lookup("protocols")))
	cobra.CheckErr(viper.BindPFlag("match_timeout", extractCmd.Flags().Lookup("match-timeout")))
	cobra.CheckErr(viper.BindPFlag("max_text_length", extractCmd.Flags().Lookup("max-text-length")))
}

func runExtract(cmd *cobra.Command, args []string) error {
	ex, err := extractor.New(buildConfig())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tasks, err := gatherSources(args)
	if err != nil {
		return err
	}

	results := make(map[string]*extractor.Result, len(tasks))

	if len(tasks) == 1 {
		results[tasks[0].ID] = ex.Extract(tasks[0].Text, tasks[0].IsHTML)
	} else {
		for id, result := range runBatch(ex, tasks) {
			results[id] = result
		}
	}

	return outputResults(tasks, results)
}

// buildConfig assembles the extraction config from viper, which merges
// flag values, the config file, and environment variables.
func buildConfig() extractor.Config {
	cfg := extractor.DefaultConfig()

	cfg.SplitConcatenated = viper.GetBool("split_concatenated")
	cfg.AutoAddProtocol = viper.GetBool("auto_add_protocol")
	cfg.Dedupe = viper.GetBool("dedupe")
	cfg.MaxURLLength = viper.GetInt("max_url_length")
	cfg.SupportedProtocols = viper.GetStringSlice("supported_protocols")
	cfg.MatchTimeout = viper.GetDuration("match_timeout")
	cfg.MaxTextLength = viper.GetInt("max_text_length")

	return cfg
}

// gatherSources resolves the input sources in precedence order: --text,
// --clipboard, file arguments, then stdin when nothing else was given.
// The sources combine, so --clipboard alongside files scans both.
func gatherSources(args []string) ([]extractor.Task, error) {
	var tasks []extractor.Task

	if inputText != "" {
		tasks = append(tasks, extractor.Task{
			ID:     fmt.Sprintf("task-%d", len(tasks)),
			Source: "text",
			Text:   inputText,
			IsHTML: forceHTML,
		})
	}

	if fromClipboard {
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}

		tasks = append(tasks, extractor.Task{
			ID:     fmt.Sprintf("task-%d", len(tasks)),
			Source: "clipboard",
			Text:   text,
			IsHTML: forceHTML,
		})
	}

	for _, filename := range args {
		text, isHTML, err := loadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filename, err)
		}

		tasks = append(tasks, extractor.Task{
			ID:     fmt.Sprintf("task-%d", len(tasks)),
			Source: filename,
			Text:   text,
			IsHTML: isHTML,
		})
	}

	if len(tasks) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		tasks = append(tasks, extractor.Task{
			ID:     "task-0",
			Source: "stdin",
			Text:   string(data),
			IsHTML: forceHTML,
		})
	}

	return tasks, nil
}

// loadFile reads one input file, converting documents to text and
// flagging HTML by extension.
func loadFile(filename string) (string, bool, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".doc", ".docx", ".rtf", ".odt", ".pptx":
		response, err := docconv.ConvertPath(filename)
		if err != nil {
			return "", false, fmt.Errorf("document conversion: %w", err)
		}

		return response.Body, false, nil
	case ".html", ".htm", ".xhtml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return "", false, err
		}

		return string(data), true, nil
	default:
		data, err := os.ReadFile(filename)
		if err != nil {
			return "", false, err
		}

		return string(data), forceHTML, nil
	}
}

// runBatch fans the tasks out over the worker pool and collects results
// keyed by task ID so output order follows input order.
func runBatch(ex *extractor.Extractor, tasks []extractor.Task) map[string]*extractor.Result {
	pool := extractor.NewWorkerPool(ex, numWorkers)
	pool.Start()

	go func() {
		pool.SubmitBatch(tasks)
		pool.Wait()
	}()

	results := make(map[string]*extractor.Result, len(tasks))

	for res := range pool.Results() {
		if !quiet {
			log.Debug().
				Str("source", res.Task.Source).
				Int("urls", res.Result.Stats[extractor.StatFinalCount]).
				Dur("elapsed", res.Elapsed).
				Msg("source processed")
		}

		results[res.Task.ID] = res.Result
	}

	return results
}

func outputResults(tasks []extractor.Task, results map[string]*extractor.Result) error {
	switch strings.ToLower(output) {
	case "json":
		return outputJSON(tasks, results)
	case "csv":
		return outputCSV(tasks, results)
	case "human":
		return outputHuman(tasks, results)
	default:
		return fmt.Errorf("unsupported output format: %s", output)
	}
}

func outputHuman(tasks []extractor.Task, results map[string]*extractor.Result) error {
	multi := len(tasks) > 1

	for i, task := range tasks {
		result := results[task.ID]
		if result == nil {
			continue
		}

		if multi {
			if i > 0 {
				fmt.Println()
			}

			fmt.Printf("📄 %s\n", task.Source)
		}

		if len(result.URLs) == 0 {
			fmt.Println("No URLs found.")
		} else {
			fmt.Printf("🔗 %d URLs found, %d duplicates removed, %d invalid\n",
				result.Stats[extractor.StatFinalCount],
				result.Stats[extractor.StatDuplicatesRemoved],
				result.Stats[extractor.StatInvalidRemoved])

			for _, u := range result.URLs {
				fmt.Printf("   • %s\n", u)
			}
		}

		if result.Stats[extractor.StatDegradedMode] == 1 {
			fmt.Println("⚠️  Pattern matching timed out; only URLs with explicit protocols were found.")
		}

		if showRejected && len(result.Rejected) > 0 {
			fmt.Printf("\n❌ Rejected (%d):\n", len(result.Rejected))

			for _, rej := range result.Rejected {
				fmt.Printf("   • %s [%s]\n", rej.Candidate, rej.Reason)
			}
		}
	}

	return nil
}

// sourceResult is the JSON output shape for one source.
type sourceResult struct {
	Source string            `json:"source"`
	Result *extractor.Result `json:"result"`
}

func outputJSON(tasks []extractor.Task, results map[string]*extractor.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if len(tasks) == 1 {
		return encoder.Encode(sourceResult{Source: tasks[0].Source, Result: results[tasks[0].ID]})
	}

	out := make([]sourceResult, 0, len(tasks))

	for _, task := range tasks {
		if result := results[task.ID]; result != nil {
			out = append(out, sourceResult{Source: task.Source, Result: result})
		}
	}

	return encoder.Encode(out)
}

func outputCSV(tasks []extractor.Task, results map[string]*extractor.Result) error {
	writer := csv.NewWriter(os.Stdout)
	defer writer.Flush()

	if err := writer.Write([]string{"source", "url"}); err != nil {
		return err
	}

	for _, task := range tasks {
		result := results[task.ID]
		if result == nil {
			continue
		}

		for _, u := range result.URLs {
			if err := writer.Write([]string{task.Source, u}); err != nil {
				return err
			}
		}
	}

	return nil
}
