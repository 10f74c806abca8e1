package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/mix-optimizer/internal/config"
	"github.com/iwvelando/mix-optimizer/internal/optimizer"
	"github.com/iwvelando/mix-optimizer/internal/request"
	"github.com/iwvelando/mix-optimizer/internal/server"
	"github.com/iwvelando/mix-optimizer/internal/simulate"
	"github.com/iwvelando/mix-optimizer/internal/solver"
	"github.com/iwvelando/mix-optimizer/pkg/constants"
	"github.com/iwvelando/mix-optimizer/pkg/output"
	"github.com/iwvelando/mix-optimizer/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// --- Global Command Variables ---
var (
	configLocation   string
	logLevel         string
	outputFormatFlag string
	requestFile      string
	algorithmFlag    string
	batchMode        bool
	serverConfigPath string
	maxUploadSize    string

	conf         *config.Configuration
	logger       *zap.Logger
	outputFormat string
	stdout       io.Writer = os.Stdout

	rootCmd = &cobra.Command{
		Use:   "mix-optimizer",
		Short: "Allocate a marketing budget across channels by response curves",
		Long: `mix-optimizer splits a budget across media channels or campaigns so
that marginal returns are balanced, and scores what-if allocations.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Rebalance spend across response curves by equalizing marginal returns",
		Args:  cobra.NoArgs,
		RunE:  runOptimize,
	}

	constrainedCmd = &cobra.Command{
		Use:   "constrained",
		Short: "Maximize campaign profit under a budget with the constrained solver",
		Args:  cobra.NoArgs,
		RunE:  runConstrained,
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Score a fixed allocation, or several with --batch",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocation API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&outputFormatFlag, "output-format", "", "type of output override: pretty, csv, json")

	for _, cmd := range []*cobra.Command{optimizeCmd, constrainedCmd, simulateCmd} {
		cmd.Flags().StringVarP(&requestFile, "file", "f", "", "request file (JSON or YAML)")
		_ = cmd.MarkFlagRequired("file")
	}
	constrainedCmd.Flags().StringVar(&algorithmFlag, "algorithm", "", "solver algorithm override (SLSQP, COBYLA, MMA, AUGLAG, BOBYQA)")
	simulateCmd.Flags().BoolVar(&batchMode, "batch", false, "treat the request as a batch of named scenarios")
	serveCmd.Flags().StringVar(&serverConfigPath, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	serveCmd.Flags().StringVar(&maxUploadSize, "max-upload-size", "", "request body limit override (e.g. 512K, 10M)")

	rootCmd.AddCommand(optimizeCmd, constrainedCmd, simulateCmd, serveCmd, versionCmd)
}

// setup loads configuration, builds the logger and resolves the output format.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	conf, err = loadConfiguration(configLocation, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	logger, err = initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// CLI override takes precedence over config
	outputFormat = conf.Output.Format
	if outputFormatFlag != "" {
		outputFormat = outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	return validation.ValidateOutputFormat(outputFormat)
}

func logWarnings(warnings []string) {
	for _, warning := range warnings {
		logger.Warn("Input warning: "+warning,
			zap.String("op", "main"),
		)
	}
}

func runOptimize(cmd *cobra.Command, args []string) error {
	var req request.OptimizeRequest
	if err := request.DecodeFile(requestFile, &req); err != nil {
		return err
	}
	logWarnings(req.Warnings())

	runner, err := optimizer.NewRunner(logger, conf.Optimizer)
	if err != nil {
		return fmt.Errorf("failed to initialize optimizer: %w", err)
	}
	result, err := runner.Optimize(req.Build())
	if err != nil {
		return fmt.Errorf("failed to optimize allocation: %w", err)
	}
	return output.Write(stdout, outputFormat, result)
}

func runConstrained(cmd *cobra.Command, args []string) error {
	var req request.ConstrainedRequest
	if err := request.DecodeFile(requestFile, &req); err != nil {
		return err
	}
	logWarnings(req.Warnings())

	campaigns, err := req.CampaignList()
	if err != nil {
		return err
	}

	algorithm := req.Algorithm
	if algorithmFlag != "" {
		algorithm = algorithmFlag
	}
	result, err := solver.Optimize(logger, campaigns, req.TotalBudget, algorithm, conf.Solver)
	if err != nil {
		return fmt.Errorf("failed to solve allocation: %w", err)
	}
	return output.Write(stdout, outputFormat, result)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if batchMode {
		var req request.BatchRequest
		if err := request.DecodeFile(requestFile, &req); err != nil {
			return err
		}
		curves, scenarios, cpms, err := req.Inputs()
		if err != nil {
			return err
		}
		results, err := simulate.EvaluateScenarios(cmd.Context(), curves, scenarios, cpms)
		if err != nil {
			return fmt.Errorf("failed to evaluate scenarios: %w", err)
		}
		return output.Write(stdout, outputFormat, results)
	}

	var req request.SimulateRequest
	if err := request.DecodeFile(requestFile, &req); err != nil {
		return err
	}
	curves, allocation, cpms, err := req.Inputs()
	if err != nil {
		return err
	}
	return output.Write(stdout, outputFormat, simulate.Evaluate(curves, allocation, cpms))
}

func runServe(cmd *cobra.Command, args []string) error {
	serverConf, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		return err
	}
	if maxUploadSize != "" {
		size, err := server.ParseSize(maxUploadSize)
		if err != nil {
			return err
		}
		serverConf.SetUploadSizeBytes(size)
	}

	// Server logging settings replace the engine's when present
	if serverConf.Logging.Level != "" || serverConf.Logging.Format != "" || serverConf.Logging.OutputFile != "" {
		merged := conf.Logging
		if serverConf.Logging.Level != "" {
			merged.Level = serverConf.Logging.Level
		}
		if serverConf.Logging.Format != "" {
			merged.Format = serverConf.Logging.Format
		}
		if serverConf.Logging.OutputFile != "" {
			merged.OutputFile = serverConf.Logging.OutputFile
		}
		serverLogger, err := initializeLogger(merged, logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize server logger: %w", err)
		}
		_ = logger.Sync()
		logger = serverLogger
	}

	handler, err := server.NewHandler(logger, serverConf.UploadSizeBytes(), version, conf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, logger, serverConf, handler)
}
