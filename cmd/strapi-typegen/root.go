package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/strapikit/typegen/customfield"
	"github.com/strapikit/typegen/internal/generator"
)

const (
	flagOut          = "out"
	flagRoot         = "strapi-root-directory"
	flagExtensionDir = "custom-fields-extension-directory"
	flagOverrides    = "overrides"
)

// builtins is the compiled-in custom-field registry. It is consulted before
// the on-disk extension directory, so forks that know their custom fields
// at build time can register mappers here instead of shipping modules.
var builtins = customfield.NewRegistry()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strapi-typegen",
		Short: "Generate TypeScript interfaces from Strapi schemas",
		Long: `Generate TypeScript interfaces from Strapi schemas.

Reads content-type schemas (src/api/**/schema.json) and component schemas
(src/components/**/*.json) from a Strapi project and writes one interface
declaration per schema, sorted by name, to a file or stdout.

Custom fields are mapped through extension modules looked up by identifier
under the extension directory; a missing module degrades that attribute to
"any" with a FIXME marker and the run continues.

Flags may also be set in a .strapi-typegen.yaml config file in the working
directory, or via STRAPI_TYPEGEN_* environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().String(flagOut, "", "Output file (default: stdout)")
	cmd.Flags().String(flagRoot, ".", "Strapi project root directory")
	cmd.Flags().String(flagExtensionDir, "custom-field", "Directory holding custom-field extension modules")
	cmd.Flags().String(flagOverrides, "", "Path to overrides.yml (optional)")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetConfigName(".strapi-typegen")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("STRAPI_TYPEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "reading config file")
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return errors.Wrap(err, "initializing logger")
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Sugar()

	modules := customfield.NewModuleDir(v.GetString(flagExtensionDir), log)
	defer modules.Close() //nolint:errcheck

	outFile := v.GetString(flagOut)
	res, err := generator.Run(generator.Config{
		RootDir:       v.GetString(flagRoot),
		OutFile:       outFile,
		OverridesFile: v.GetString(flagOverrides),
		Resolver:      customfield.Chain{builtins, modules},
		Log:           log,
	})
	if err != nil {
		return err
	}

	// Progress output would interleave with generated text in stdout mode.
	if outFile != "" {
		pterm.Success.Printfln("Generated %d interfaces to %s", res.Interfaces+res.Markers, outFile)
		if res.SkippedSchemas > 0 {
			pterm.Warning.Printfln("Skipped %d schemas; see diagnostics above", res.SkippedSchemas)
		}
	}
	return nil
}

// newLogger builds the console logger used for operator diagnostics.
// Diagnostics always go to stderr so stdout stays clean for generated
// output.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
