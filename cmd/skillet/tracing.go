package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jingkaihe/skillet/pkg/telemetry"
	"github.com/jingkaihe/skillet/pkg/version"
)

var tracer = telemetry.Tracer("skillet.cli")

// sensitiveFlags are never recorded as span attributes
var sensitiveFlags = map[string]bool{
	"token": true,
}

func initTracing(ctx context.Context, tc telemetry.Config) (func(context.Context) error, error) {
	tc.ServiceVersion = version.Get().Version
	shutdown, err := telemetry.InitTracer(ctx, tc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize tracer")
	}
	return shutdown, nil
}

// withTracing runs the command inside a cli.command span
func withTracing(cmd *cobra.Command) *cobra.Command {
	run := cmd.RunE

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		attrs := []attribute.KeyValue{
			attribute.String("command.name", cmd.Name()),
			attribute.String("command.path", cmd.CommandPath()),
			attribute.Int("args.count", len(args)),
		}
		cmd.Flags().Visit(func(flag *pflag.Flag) {
			if !sensitiveFlags[flag.Name] {
				attrs = append(attrs, attribute.String("flag."+flag.Name, flag.Value.String()))
			}
		})

		ctx, span := tracer.Start(cmd.Context(), "cli.command", trace.WithAttributes(attrs...))
		defer span.End()
		cmd.SetContext(ctx)

		if err := run(cmd, args); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
	return cmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	flags.String("tracing-sampler", "ratio", "Tracing sampler type (always, never, ratio)")
	flags.Float64("tracing-ratio", 1, "Sampling ratio when using the ratio sampler")

	_ = settings.BindPFlag("tracing.enabled", flags.Lookup("tracing-enabled"))
	_ = settings.BindPFlag("tracing.sampler", flags.Lookup("tracing-sampler"))
	_ = settings.BindPFlag("tracing.ratio", flags.Lookup("tracing-ratio"))
}
