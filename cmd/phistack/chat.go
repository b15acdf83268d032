package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phistack/internal/capability"
	"phistack/internal/chat"
	"phistack/internal/tui"
)

type chatFlags struct {
	model       string
	system      string
	coding      bool
	math        bool
	maxTokens   int
	temperature float32
}

func newChatCmd(a *app) *cobra.Command {
	f := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat with a Phi model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, a, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.model, "model", "m", "", "variant id (default: last used, then config default)")
	fl.StringVar(&f.system, "system", "", "custom system prompt")
	fl.BoolVar(&f.coding, "coding", false, "enable coding assistant mode")
	fl.BoolVar(&f.math, "math", false, "enable math assistant mode")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "maximum tokens per reply")
	fl.Float32Var(&f.temperature, "temperature", 0, "sampling temperature")
	return cmd
}

func runChat(cmd *cobra.Command, a *app, f *chatFlags) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()
	cc := a.cfg.Chat

	uiState := tui.NewUIStateManager(a.cfg.Cache.StateDir, a.logger)
	id := f.model
	if id == "" {
		if st, err := uiState.Load(); err == nil && st.Variant != "" {
			if _, lookupErr := a.catalog.ByID(st.Variant); lookupErr == nil {
				id = st.Variant
			}
		}
	}
	v, err := a.variant(id)
	if err != nil {
		return err
	}

	p, report := a.advisor(nil).Check(ctx, v)
	for _, issue := range report.Issues {
		fmt.Fprintf(errOut, "warning: %s\n", issue)
	}
	fmt.Fprintf(errOut, "Using %s on backend %s\n", v.DisplayName, capability.RecommendedBackend(p))

	m, err := a.cacheManager(nil)
	if err != nil {
		return err
	}
	if path, ensureErr := m.Ensure(ctx, v); ensureErr != nil {
		fmt.Fprintf(errOut, "warning: artifact not available locally: %v\n", ensureErr)
	} else {
		a.logger.Info("chat.model.ready", "Model artifact ready", map[string]interface{}{
			"variant": v.ID,
			"path":    path,
		})
	}

	var gen chat.Generator = chat.UnavailableGenerator{}
	if cc.Endpoint != "" {
		model := cc.Model
		if model == "" {
			model = v.ID
		}
		gen = chat.NewOpenAIGenerator(cc.Endpoint, os.Getenv(cc.APIKeyEnv), model, a.logger)
	} else {
		fmt.Fprintln(errOut, "warning: chat.endpoint is not configured; replies will fail")
	}

	var transcript *chat.Transcript
	if cc.TranscriptDir != "" {
		transcript, err = chat.NewTranscript(cc.TranscriptDir)
		if err != nil {
			return err
		}
		a.logger.Info("chat.transcript.opened", "Recording transcript", map[string]interface{}{
			"session_id": transcript.SessionID(),
			"path":       transcript.Path(),
		})
	}

	opts := chat.Options{
		Variant:      v,
		Generator:    gen,
		SystemPrompt: cc.SystemPrompt,
		CodingMode:   cc.CodingMode || f.coding,
		MathMode:     cc.MathMode || f.math,
		HistoryLimit: cc.HistoryLimit,
		MaxTokens:    cc.MaxTokens,
		Temperature:  cc.Temperature,
		Transcript:   transcript,
		Logger:       a.logger,
	}
	if f.system != "" {
		opts.SystemPrompt = f.system
	}
	if cmd.Flags().Changed("max-tokens") {
		opts.MaxTokens = f.maxTokens
	}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = f.temperature
	}
	if opts.CodingMode {
		fmt.Fprintln(errOut, "Coding Assistant Mode Enabled")
		if !v.SupportsCoding() {
			fmt.Fprintf(errOut, "note: %s is not tagged for coding\n", v.ID)
		}
	}
	if opts.MathMode {
		fmt.Fprintln(errOut, "Math Assistant Mode Enabled")
		if !v.SupportsMath() {
			fmt.Fprintf(errOut, "note: %s is not tagged for math\n", v.ID)
		}
	}

	return tui.Run(ctx, chat.NewSession(opts), uiState, a.logger, os.Stdin, cmd.OutOrStdout())
}
