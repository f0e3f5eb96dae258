package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jingkaihe/skillet/pkg/csi"
	"github.com/jingkaihe/skillet/pkg/csitest"
	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/prompt"
)

const defaultModel = "llama-3.1-8b-instruct"

var csiCmd = &cobra.Command{
	Use:   "csi",
	Short: "Call a development host through the CSI protocol",
	Long: `Call a development host directly, the same way a skill running under
csitest.DevCsi would. The host is taken from dev.address and dev.token, or
from the --address and --token flags.`,
}

// exitFataler ends the process when the dev host call fails
type exitFataler struct{}

func (exitFataler) Fatalf(format string, args ...any) {
	presenter.Error(errors.Errorf(format, args...), "")
	_ = shutdownTracing(rootCmd.Context())
	os.Exit(1)
}

func init() {
	flags := csiCmd.PersistentFlags()
	flags.String("address", "", "Dev host address (overrides dev.address)")
	flags.String("token", "", "Dev host token (overrides dev.token)")
	_ = settings.BindPFlag("dev.address", flags.Lookup("address"))
	_ = settings.BindPFlag("dev.token", flags.Lookup("token"))

	addCompleteFlags(completeCmd.Flags())
	addChunkFlags(chunkCmd.Flags())
	selectLanguageCmd.Flags().StringSlice("languages", nil, "ISO 639-3 codes to choose from, all supported codes when empty")
	addSearchFlags(searchCmd.Flags())
	_ = chunkCmd.MarkFlagRequired("max-tokens")
	for _, name := range []string{"namespace", "collection", "index"} {
		_ = searchCmd.MarkFlagRequired(name)
	}

	csiCmd.AddCommand(completeCmd)
	csiCmd.AddCommand(chunkCmd)
	csiCmd.AddCommand(selectLanguageCmd)
	csiCmd.AddCommand(searchCmd)
}

func addCompleteFlags(fs *pflag.FlagSet) {
	fs.String("model", defaultModel, "Model to complete with")
	fs.Uint32("max-tokens", 64, "Maximum number of generated tokens")
	fs.Float64("temperature", 0, "Sampling temperature, the host default when unset")
	fs.StringSlice("stop", nil, "Stop sequences")
	fs.String("system", "", "Render the prompt as a Llama 3 conversation with this system message")
}

func addChunkFlags(fs *pflag.FlagSet) {
	fs.String("model", defaultModel, "Model whose tokenizer bounds the chunks")
	fs.Uint32("max-tokens", 0, "Maximum number of tokens per chunk")
	fs.Uint32("overlap", 0, "Tokens shared by adjacent chunks")
}

func addSearchFlags(fs *pflag.FlagSet) {
	fs.String("namespace", "", "Namespace of the index")
	fs.String("collection", "", "Collection of the index")
	fs.String("index", "", "Name of the index")
	fs.Uint32("max-results", 1, "Maximum number of results")
	fs.Float64("min-score", 0, "Minimum relevance score")
	fs.StringArray("filter", nil, `Search filter as JSON, e.g. {"with":[{"metadata":{"field":"pages","less_than":10}}]}`)
}

func newDevCsi() (*csitest.DevCsi, error) {
	return csitest.NewDevCsiFromConfig(cfg.Dev, csitest.WithFataler(exitFataler{}))
}

var completeCmd = withTracing(&cobra.Command{
	Use:   "complete PROMPT",
	Short: "Complete a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := getCompletionRequestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		c, err := newDevCsi()
		if err != nil {
			return err
		}

		completion := csi.Complete(cmd.Context(), c, request)
		presenter.Field("text", completion.Text)
		presenter.Field("finish_reason", completion.FinishReason)
		presenter.Usage(completion.Usage)
		return nil
	},
})

// getCompletionRequestFromFlags builds the completion request for text
func getCompletionRequestFromFlags(cmd *cobra.Command, text string) (csi.CompletionRequest, error) {
	flags := cmd.Flags()
	model, _ := flags.GetString("model")
	maxTokens, _ := flags.GetUint32("max-tokens")
	stop, _ := flags.GetStringSlice("stop")
	system, _ := flags.GetString("system")

	params := csi.DefaultCompletionParams()
	params.MaxTokens = &maxTokens
	if len(stop) > 0 {
		params.Stop = stop
	}
	if flags.Changed("temperature") {
		temperature, _ := flags.GetFloat64("temperature")
		if temperature < 0 {
			return csi.CompletionRequest{}, errors.Errorf("temperature must not be negative, got %v", temperature)
		}
		params.Temperature = &temperature
	}

	if flags.Changed("system") {
		text = prompt.New(system).WithUserMessage(text).String()
		params.Stop = append(params.Stop, "<|start_header_id|>")
		params.ReturnSpecialTokens = false
	}
	return csi.NewCompletionRequest(model, text).WithParams(params), nil
}

var chunkCmd = withTracing(&cobra.Command{
	Use:   "chunk TEXT",
	Short: "Split text into token-bounded chunks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := getChunkParamsFromFlags(cmd)
		if err != nil {
			return err
		}
		c, err := newDevCsi()
		if err != nil {
			return err
		}

		chunks := csi.Chunk(cmd.Context(), c, csi.NewChunkRequest(args[0], params))
		presenter.Section(fmt.Sprintf("%d chunks", len(chunks)))
		presenter.List(chunks)
		return nil
	},
})

// getChunkParamsFromFlags reads and validates the chunk parameters
func getChunkParamsFromFlags(cmd *cobra.Command) (csi.ChunkParams, error) {
	model, _ := cmd.Flags().GetString("model")
	maxTokens, _ := cmd.Flags().GetUint32("max-tokens")
	overlap, _ := cmd.Flags().GetUint32("overlap")

	params := csi.NewChunkParams(model, maxTokens).WithOverlap(overlap)
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

var selectLanguageCmd = withTracing(&cobra.Command{
	Use:   "select-language TEXT",
	Short: "Detect which of the given languages the text is written in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringSlice("languages")
		languages, err := parseLanguages(raw)
		if err != nil {
			return err
		}
		c, err := newDevCsi()
		if err != nil {
			return err
		}

		language := csi.SelectLanguage(cmd.Context(), c, csi.NewSelectLanguageRequest(args[0], languages...))
		if language == nil {
			presenter.Field("language", "none")
			return nil
		}
		presenter.Field("language", *language)
		return nil
	},
})

// parseLanguages parses language codes, defaulting to every supported code
func parseLanguages(raw []string) ([]csi.LanguageCode, error) {
	if len(raw) == 0 {
		return csi.AllLanguageCodes(), nil
	}
	languages := make([]csi.LanguageCode, 0, len(raw))
	for _, s := range raw {
		code, err := csi.ParseLanguageCode(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return nil, err
		}
		languages = append(languages, code)
	}
	return languages, nil
}

var searchCmd = withTracing(&cobra.Command{
	Use:   "search QUERY",
	Short: "Search an index of the document index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request, err := getSearchRequestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		c, err := newDevCsi()
		if err != nil {
			return err
		}

		results := csi.Search(cmd.Context(), c, request)
		presenter.Section(fmt.Sprintf("%d results", len(results)))
		for _, r := range results {
			p := r.DocumentPath
			presenter.Field("document", p.Namespace+"/"+p.Collection+"/"+p.Name)
			presenter.Field("score", fmt.Sprintf("%.4f", r.Score))
			presenter.Field("content", r.Content)
			presenter.Separator()
		}
		return nil
	},
})

// getSearchRequestFromFlags builds the search request for query
func getSearchRequestFromFlags(cmd *cobra.Command, query string) (csi.SearchRequest, error) {
	flags := cmd.Flags()
	namespace, _ := flags.GetString("namespace")
	collection, _ := flags.GetString("collection")
	index, _ := flags.GetString("index")
	maxResults, _ := flags.GetUint32("max-results")
	rawFilters, _ := flags.GetStringArray("filter")

	request := csi.NewSearchRequest(query, csi.NewIndexPath(namespace, collection, index)).
		WithMaxResults(maxResults)
	if flags.Changed("min-score") {
		minScore, _ := flags.GetFloat64("min-score")
		request = request.WithMinScore(minScore)
	}

	filters := make([]csi.SearchFilter, 0, len(rawFilters))
	for _, raw := range rawFilters {
		filter, err := csi.UnmarshalSearchFilter([]byte(raw))
		if err != nil {
			return request, errors.Wrapf(err, "invalid --filter %s", raw)
		}
		filters = append(filters, filter)
	}
	return request.WithFilters(filters...), nil
}
