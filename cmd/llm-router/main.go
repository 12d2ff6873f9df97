package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	llmrouter "github.com/tributary-ai/llm-router"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] \"prompt text\"\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nRuns one sample completion through the router and prints the result to stdout.\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY      Anthropic API key\n")
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY         OpenAI API key\n")
	fmt.Fprintf(os.Stderr, "  GROQ_API_KEY           Groq API key\n")
	fmt.Fprintf(os.Stderr, "  OLLAMA_BASE_URL        Local Ollama server URL\n")
	fmt.Fprintf(os.Stderr, "  LLM_ROUTER_LOG_LEVEL   Log level (debug,info,warn,error,fatal)\n")
	fmt.Fprintf(os.Stderr, "  LLM_ROUTER_LOG_FORMAT  Log format (json,text)\n")
	fmt.Fprintf(os.Stderr, "  LLM_ROUTER_DEFAULT_STRATEGY  Default routing strategy\n")
	fmt.Fprintf(os.Stderr, "\nExample:\n")
	fmt.Fprintf(os.Stderr, "  ANTHROPIC_API_KEY=sk-ant-xxx %s \"summarize the attached release notes\"\n", os.Args[0])
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		provider   = flag.String("provider", "", "Route to this provider only, bypassing selection and fallback")
		showHelp   = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}
	if *version {
		fmt.Println("llm-router v1.0.0")
		os.Exit(0)
	}

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		prompt = "In one sentence, what does this router do?"
	}

	router, err := llmrouter.Initialize(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize router: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	req := &llmrouter.Request{
		Messages: []llmrouter.Message{{Role: "user", Text: prompt}},
	}

	var resp *llmrouter.Response
	if *provider != "" {
		resp, err = router.CompleteWithProvider(ctx, *provider, req)
	} else {
		resp, err = router.Complete(ctx, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "completion failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(resp.Content)
	fmt.Fprintf(os.Stderr, "\n--- provider=%s model=%s tokens=%d cost=$%.5f latency=%dms fallback=%v\n",
		resp.Provider, resp.Model, resp.Usage.TotalTokens, resp.Cost.TotalCost, resp.LatencyMs, resp.Metadata.FallbackUsed)
}
