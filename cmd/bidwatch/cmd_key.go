package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bidwatch/internal/llm"
	"bidwatch/internal/session"
)

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key [key]",
	Short: "Validate an API key against the chat provider",
	Long: `Probes the configured chat-completion provider with the given key
(or the configured/environment key when omitted) and stores it for the chat
interface on success. A rate-limited response still counts as valid.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateKey,
}

func runValidateKey(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	keys := session.NewKeySession(a.cfg.LLM, a.prefs, nil)

	candidate := ""
	if len(args) == 1 {
		candidate = args[0]
	} else if key, _ := keys.Key(); key != "" {
		candidate = key
	} else {
		candidate = a.cfg.LLM.APIKey
	}
	if candidate == "" {
		return fmt.Errorf("no API key given; pass one as an argument or set BIDWATCH_API_KEY")
	}

	err = keys.Validate(context.Background(), candidate)
	switch {
	case err == nil:
		fmt.Println("Key is valid and has been saved.")
		return nil
	case errors.Is(err, llm.ErrInvalidKey):
		fmt.Println("The provider rejected this key.")
		return err
	default:
		fmt.Printf("Could not verify the key: %v\n", err)
		return err
	}
}
