package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phishguard/phishguard/internal/adapters/detector"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/logging"
	"github.com/phishguard/phishguard/internal/utils"
	"go.uber.org/zap"
)

var (
	apiURL     = flag.String("api", "http://localhost:8000", "Base URL of the detection API")
	timeout    = flag.Duration("timeout", 10*time.Second, "Request timeout")
	analyzeURL = flag.String("url", "", "URL to analyze")
	emailFile  = flag.String("email-file", "", "Email content file to analyze (use stdin with -email)")
	emailStdin = flag.Bool("email", false, "Read email content from stdin")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := detector.NewClient(*apiURL, *timeout, logger)
	ctx := context.Background()

	var (
		result       *core.AnalysisResult
		analysisType core.AnalysisType
		input        string
	)

	switch {
	case *analyzeURL != "":
		analysisType = core.AnalysisTypeURL
		input = *analyzeURL
		logger.Info("Analyzing URL", zap.String("url", input))
		result, err = client.AnalyzeURL(ctx, input)
	case *emailFile != "" || *emailStdin:
		analysisType = core.AnalysisTypeEmail
		input, err = readEmailContent()
		if err != nil {
			logger.Fatal("Failed to read email content", zap.Error(err))
		}
		logger.Info("Analyzing email", zap.Int("content_length", len(input)))
		result, err = client.AnalyzeEmail(ctx, input)
	default:
		fmt.Fprintln(os.Stderr, "Specify -url, -email-file or -email")
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}

	printResult(analysisType, input, result)

	if result.IsAdverse() {
		os.Exit(1)
	}
}

func readEmailContent() (string, error) {
	if *emailFile != "" {
		data, err := os.ReadFile(*emailFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printResult(analysisType core.AnalysisType, input string, result *core.AnalysisResult) {
	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Type: %s\n", analysisType)
	fmt.Printf("Input: %s\n", utils.TruncateForDisplay(input, 200))

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Classification: %s\n", result.Classification)
	fmt.Printf("Risk score: %.1f/100\n", result.Score)
	fmt.Printf("Message: %s\n", result.Message)

	features := utils.FormatFeatures(result.Features, 8)
	if len(features) > 0 {
		fmt.Printf("\n=== Features ===\n")
		for _, f := range features {
			fmt.Printf("%s: %s\n", f.Name, f.Value)
		}
	}
}
