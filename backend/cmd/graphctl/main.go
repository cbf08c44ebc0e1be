// Package main provides graphctl, the operator CLI for graph analytics jobs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sportsgraph/backend/internal/app"
	"sportsgraph/backend/internal/constants"
	"sportsgraph/backend/internal/graph"
	"sportsgraph/backend/internal/services"
	"sportsgraph/backend/pkg/config"
	"sportsgraph/backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:          "graphctl",
	Short:        "Run graph analytics jobs against the sports graph",
	Long:         `graphctl computes embeddings, similarity, PageRank and communities on the Neo4j sports graph and exports its edge list.`,
	SilenceUsage: true,
}

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Compute node embeddings on the projection",
	RunE:  runEmbeddings,
}

var knnCmd = &cobra.Command{
	Use:   "knn",
	Short: "Write SIMILAR_PERSON relationships from the current embeddings",
	RunE:  runKnn,
}

var knnSetupCmd = &cobra.Command{
	Use:   "knn-setup",
	Short: "Ensure the projection, compute embeddings, then write similarity relationships",
	RunE:  runKnnSetup,
}

var similarCmd = &cobra.Command{
	Use:   "similar <name>",
	Short: "List the nodes most similar to a named node",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

var pagerankCmd = &cobra.Command{
	Use:   "pagerank",
	Short: "Calculate and store PageRank scores",
	RunE:  runPageRank,
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show stored PageRank scores, highest first",
	RunE:  runScores,
}

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Detect communities and print them grouped by id",
	RunE:  runCommunities,
}

var communitiesWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Store each node's community id as a node property",
	RunE:  runCommunitiesWrite,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export Person-Person edges as CSV (gzip when the path ends in .gz)",
	RunE:  runExport,
}

var projectionCmd = &cobra.Command{
	Use:   "projection",
	Short: "Projection lifecycle commands",
}

var projectionEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the projection if it is absent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
			if err := svc.EnsureProjection(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "projection ready")
			return nil
		})
	},
}

var projectionDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the projection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
			if err := svc.DropProjection(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "projection dropped")
			return nil
		})
	},
}

var projectionRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Drop and recreate the projection from the current graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
			if err := svc.RebuildProjection(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "projection rebuilt")
			return nil
		})
	},
}

var (
	dimension     int
	iterations    int
	topK          int
	maxIterations int
	dampingFactor float64
	tolerance     float64
	writeProperty string
	scoreLimit    int
	threshold     float64
	exportPath    string
	timeout       time.Duration
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Abort the job after this long")

	embeddingsCmd.Flags().IntVar(&dimension, "dim", 0, "Embedding dimension (0 uses the configured default)")
	embeddingsCmd.Flags().IntVar(&iterations, "iterations", 0, "Embedding iterations (0 uses the configured default)")
	knnCmd.Flags().IntVar(&topK, "top-k", 0, "Neighbours per node (0 uses the configured default)")
	knnSetupCmd.Flags().IntVar(&dimension, "dim", 0, "Embedding dimension")
	knnSetupCmd.Flags().IntVar(&iterations, "iterations", 0, "Embedding iterations")
	knnSetupCmd.Flags().IntVar(&topK, "top-k", 0, "Neighbours per node")
	similarCmd.Flags().IntVar(&topK, "top-k", 0, "Number of similar nodes")

	pagerankCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "Maximum iterations")
	pagerankCmd.Flags().Float64Var(&dampingFactor, "damping", 0, "Damping factor")
	pagerankCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Convergence tolerance")
	pagerankCmd.Flags().StringVar(&writeProperty, "property", "", "Node property to write")
	scoresCmd.Flags().IntVar(&scoreLimit, "limit", 0, "Number of scores to show")
	scoresCmd.Flags().Float64Var(&threshold, "threshold", constants.DefaultPageRankThreshold, "Minimum score")
	scoresCmd.Flags().StringVar(&writeProperty, "property", "", "Node property to read")

	exportCmd.Flags().StringVar(&exportPath, "out", "", "Output path (defaults to EXPORT_PATH)")

	communitiesCmd.AddCommand(communitiesWriteCmd)
	projectionCmd.AddCommand(projectionEnsureCmd, projectionDropCmd, projectionRebuildCmd)
	rootCmd.AddCommand(
		embeddingsCmd,
		knnCmd,
		knnSetupCmd,
		similarCmd,
		pagerankCmd,
		scoresCmd,
		communitiesCmd,
		exportCmd,
		projectionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withService loads configuration, connects and runs fn with a bounded context
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *services.GraphService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Options{Env: cfg.Env, Level: cfg.LogLevel}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	graphApp, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer graphApp.Close(context.Background())

	return fn(ctx, graphApp.Service)
}

func runEmbeddings(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		if err := svc.ComputeEmbeddings(ctx, graph.EmbeddingOptions{Dimension: dimension, Iterations: iterations}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "embeddings computed")
		return nil
	})
}

func runKnn(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		if err := svc.WriteKnn(ctx, graph.KnnOptions{TopK: topK}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "similarity relationships written")
		return nil
	})
}

func runKnnSetup(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		err := svc.SetupKnn(ctx,
			graph.EmbeddingOptions{Dimension: dimension, Iterations: iterations},
			graph.KnnOptions{TopK: topK},
		)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "kNN setup complete")
		return nil
	})
}

func runSimilar(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		rows, err := svc.GetSimilar(ctx, args[0], topK)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rows)
	})
}

func runPageRank(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		result, err := svc.CalculatePageRank(ctx, graph.PageRankOptions{
			MaxIterations: maxIterations,
			DampingFactor: dampingFactor,
			Tolerance:     tolerance,
			WriteProperty: writeProperty,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func runScores(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		rows, err := svc.GetPageRankScores(ctx, graph.PageRankQuery{
			Limit:     scoreLimit,
			Threshold: threshold,
			Property:  writeProperty,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rows)
	})
}

func runCommunities(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		groups, err := svc.CommunityGroups(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), groups)
	})
}

func runCommunitiesWrite(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		result, err := svc.WriteCommunities(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc *services.GraphService) error {
		result, err := svc.ExportEdgesToCSV(ctx, exportPath)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
