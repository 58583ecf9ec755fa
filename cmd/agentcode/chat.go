package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samkitpalrecha/AgentCodeV3/internal/task"
)

func newChatCommand(backend *string) *cobra.Command {
	var sourcePath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent in a conversation loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*backend)
			if err != nil {
				return err
			}

			source := ""
			if sourcePath != "" {
				data, err := os.ReadFile(sourcePath)
				if err != nil {
					return fmt.Errorf("read source file: %w", err)
				}
				source = string(data)
			}

			fmt.Println(infoStyle("agentcode chat — type your question, 'exit' to leave"))

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Print(bold("> "))
				line, err := reader.ReadString('\n')
				if err != nil {
					fmt.Println()
					return nil
				}
				instruction := strings.TrimSpace(line)
				if instruction == "" {
					continue
				}
				if instruction == "exit" || instruction == "quit" {
					return nil
				}

				chatTurn(app, instruction, source)
			}
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "file", "f", "", "source file to discuss")

	return cmd
}

// chatTurn runs one conversation-mode task and prints the assistant's
// reply. Ctrl-C cancels the in-flight turn without leaving the loop.
func chatTurn(app *app, instruction, source string) {
	progress := newProgressPrinter()

	events := task.Events{
		OnUpdate: func(st *task.State) {
			if st.IsRunning() {
				progress.update(st.ProgressPercent, st.ProgressLabel)
			}
		},
	}

	handle := app.runner.Start(context.Background(), instruction, source, task.ModeConversation, events)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			handle.Cancel()
		}
	}()

	<-handle.Done()
	close(sigCh)
	progress.finish()

	state := handle.State()
	if state.Phase == task.PhaseCancelled {
		fmt.Println(gray("cancelled"))
		return
	}

	turns := state.Conversation
	if len(turns) == 0 {
		return
	}
	last := turns[len(turns)-1]
	if last.Role != "assistant" {
		return
	}

	if last.Content != "" {
		fmt.Print(app.markdown.render(last.Content))
	}
	if last.Code != "" {
		fmt.Print(app.markdown.render("```\n" + last.Code + "\n```"))
	}
}
