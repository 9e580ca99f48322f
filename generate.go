package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ccreator/generator"
	"ccreator/orchestrator"
	"ccreator/render"
)

var (
	genURL    string
	genText   string
	genPrompt string
	imgText   string
	outDir    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a blog post, a briefing and an image from a URL or text",
	Example: `  ccreator generate --url https://example.com/article --out ./out
  ccreator generate --text "Go 1.25 release notes..."`,
	RunE: runGenerate,
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Generate an image from text (via a prompt) or directly from a prompt",
	RunE:  runImage,
}

func init() {
	generateCmd.Flags().StringVar(&genURL, "url", "", "source page URL")
	generateCmd.Flags().StringVar(&genText, "text", "", "source text")
	generateCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	generateCmd.MarkFlagsOneRequired("url", "text")
	generateCmd.MarkFlagsMutuallyExclusive("url", "text")

	imageCmd.Flags().StringVar(&imgText, "text", "", "text to derive an image prompt from")
	imageCmd.Flags().StringVar(&genPrompt, "prompt", "", "image prompt")
	imageCmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	imageCmd.MarkFlagsOneRequired("text", "prompt")
	imageCmd.MarkFlagsMutuallyExclusive("text", "prompt")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(cmd.Context(), cfg, log, nil)
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(svc, cfg, log)
	if err != nil {
		return err
	}

	kind, value := generator.InputText, genText
	if genURL != "" {
		kind, value = generator.InputURL, genURL
	}
	ctx, cancel := flowContext(cmd.Context(), cfg.Server.FlowTimeout)
	defer cancel()
	if err := orch.SubmitContent(ctx, kind, value); err != nil {
		return err
	}

	c := orch.State().Content
	if c == nil {
		return errors.New("no content generated")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		"blog.html":     c.BlogPost,
		"briefing.html": c.BriefingDocument,
		"prompt.txt":    c.ImagePrompt + "\n",
	}
	for name, body := range files {
		if err := writeOut(cmd, name, []byte(body)); err != nil {
			return err
		}
	}
	return writeImage(cmd, c.GeneratedImage)
}

func runImage(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildService(cmd.Context(), cfg, log, nil)
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(svc, cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := flowContext(cmd.Context(), cfg.Server.FlowTimeout)
	defer cancel()
	if imgText != "" {
		err = orch.SubmitTextToImagePrompt(ctx, imgText)
	} else {
		err = orch.SubmitPromptToImage(ctx, genPrompt)
	}
	if err != nil {
		return err
	}

	st := orch.State()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	if imgText != "" {
		if err := writeOut(cmd, "prompt.txt", []byte(st.CurrentPrompt+"\n")); err != nil {
			return err
		}
	}
	return writeImage(cmd, st.PromptOnlyImage)
}

func flowContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func writeImage(cmd *cobra.Command, b64 string) error {
	data, mime, err := render.DecodeImage(b64)
	if err != nil {
		return err
	}
	return writeOut(cmd, render.DownloadName(mime), data)
}

func writeOut(cmd *cobra.Command, name string, data []byte) error {
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
