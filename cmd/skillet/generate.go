package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jingkaihe/skillet/pkg/codegen"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

var generateCmd = withTracing(&cobra.Command{
	Use:   "generate",
	Short: "Generate the export file for a skill function",
	Long: `Generate a skill_export.go file that registers a skill function with the
host runtime. The function's doc comment becomes the skill description.

Usually invoked through go generate:

    //go:generate skillet generate -f HelloWorld`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := getGenerateOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		g := codegen.NewGenerator(opts)
		fn, err := g.Generate(cmd.Context())
		if err != nil {
			return errors.Wrap(err, "failed to generate skill export")
		}

		presenter.Success(fmt.Sprintf("Exported %s as skill %q in %s", fn.Function, fn.Name, g.OutputPath()))
		return nil
	},
})

func init() {
	addGenerateFlags(generateCmd.Flags())
	_ = generateCmd.MarkFlagRequired("function")
}

func addGenerateFlags(fs *pflag.FlagSet) {
	fs.StringP("function", "f", "", "Name of the skill function")
	fs.StringP("dir", "d", ".", "Package directory containing the function")
	fs.StringP("output", "o", codegen.DefaultOutput, "Name of the generated file inside the package directory")
	fs.StringP("name", "n", "", "Skill name, defaults to the function name")
}

// getGenerateOptionsFromFlags reads the generator options from command flags
func getGenerateOptionsFromFlags(cmd *cobra.Command) (codegen.Options, error) {
	var opts codegen.Options
	var err error

	if opts.Function, err = cmd.Flags().GetString("function"); err != nil {
		return opts, err
	}
	if opts.Dir, err = cmd.Flags().GetString("dir"); err != nil {
		return opts, err
	}
	if opts.Output, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}
	if opts.Name, err = cmd.Flags().GetString("name"); err != nil {
		return opts, err
	}

	if opts.Function == "" {
		return opts, errors.New("--function must not be empty")
	}
	return opts, nil
}
