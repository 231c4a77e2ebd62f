// oasgate CLI - serve and check OpenAPI contracts from the command line.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/oasgate/oasgate/pkg/checks"
	"github.com/oasgate/oasgate/pkg/httputil"
	"github.com/oasgate/oasgate/pkg/logging"
	"github.com/oasgate/oasgate/pkg/spec"
)

// Build-time variables set via ldflags
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "oasgate",
		Short:         "Serve and check OpenAPI 3.0 contracts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		addr      string
		route     string
		docs      string
		uiVersion string
		dir       bool
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "serve <spec-file>",
		Short: "Serve a spec document and its explorer page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(logging.Config{Level: logging.ParseLevel(logLevel)})
			reg := spec.New(spec.WithLogger(log))

			var err error
			if dir {
				if !cmd.Flags().Changed("route") {
					route = "/spec"
				}
				err = reg.RegisterSpecDirectory(args[0], spec.WithRoute(route))
			} else {
				err = reg.RegisterSpec(args[0], spec.WithRoute(route))
			}
			if err != nil {
				return err
			}
			if err := reg.AddExplorer(
				spec.WithExplorerRoute(docs),
				spec.WithUIVersion(uiVersion),
			); err != nil {
				return err
			}

			r := chi.NewRouter()
			r.NotFound(func(w http.ResponseWriter, req *http.Request) {
				httputil.WriteNotFound(w, "not_found", "no such route; the spec is served at "+reg.SpecRoute())
			})
			reg.Mount(r)

			log.Info("serving spec", "addr", addr, "spec", reg.SpecRoute(), "explorer", docs)
			return http.ListenAndServe(addr, r)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&route, "route", "/openapi.yaml", "path to serve the spec document at (/spec with --dir)")
	cmd.Flags().BoolVar(&dir, "dir", false, "treat the spec as the root of a multi-file directory")
	cmd.Flags().StringVar(&docs, "docs", "/docs/", "path to serve the explorer page at")
	cmd.Flags().StringVar(&uiVersion, "ui-version", spec.DefaultUIVersion, "Swagger UI version for the explorer")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		minimal    string
		withParams string
	)

	cmd := &cobra.Command{
		Use:   "check <spec-file>",
		Short: "Check every operation declares the minimal response codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := spec.DefaultSettings()
			if minimal != "" {
				settings.MinimalResponses = spec.ParseCodes(minimal)
			}
			if withParams != "" {
				settings.MinimalResponsesWithParams = spec.ParseCodes(withParams)
			}

			reg := spec.New(spec.WithSettings(settings))
			if err := reg.RegisterSpec(args[0]); err != nil {
				return err
			}

			err := checks.MinimalResponses(reg)
			var mre *checks.MinimalResponsesError
			if errors.As(err, &mre) {
				for _, v := range mre.Violations {
					fmt.Fprintln(os.Stderr, v)
				}
				return fmt.Errorf("%d operation(s) missing minimal responses", len(mre.Violations))
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVar(&minimal, "minimal", "", "comma-separated minimal response codes (default 200,400,500)")
	cmd.Flags().StringVar(&withParams, "with-params", "", "extra codes required for parameterized operations (default 404)")
	return cmd
}
