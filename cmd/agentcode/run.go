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

	"github.com/samkitpalrecha/AgentCodeV3/internal/agenterr"
	"github.com/samkitpalrecha/AgentCodeV3/internal/diff"
	"github.com/samkitpalrecha/AgentCodeV3/internal/task"
)

func newRunCommand(backend *string) *cobra.Command {
	var (
		modeFlag   string
		outputPath string
		writeBack  bool
		autoAccept bool
		showStats  bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run <instruction> [file]",
		Short: "Run one agent task against an optional source file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*backend)
			if err != nil {
				return err
			}

			if modeFlag == "" {
				modeFlag = app.cfg.DefaultMode
			}
			mode, err := task.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			instruction := args[0]
			sourcePath := ""
			source := ""
			if len(args) == 2 {
				sourcePath = args[1]
				data, err := os.ReadFile(sourcePath)
				if err != nil {
					return fmt.Errorf("read source file: %w", err)
				}
				source = string(data)
			}

			state, failed := runTask(app, instruction, source, mode, verbose)
			if state == nil {
				return fmt.Errorf("task did not produce a result")
			}

			switch state.Phase {
			case task.PhaseCompleted:
				if err := finishCompleted(app, state, source, sourcePath, outputPath, writeBack, autoAccept); err != nil {
					return err
				}
			case task.PhaseCancelled:
				fmt.Println(gray("cancelled"))
			case task.PhaseFailed:
				// Message already surfaced through the failure callbacks.
			}

			if showStats {
				app.printStats()
			}
			if failed {
				return fmt.Errorf("task failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "task mode: inspect, autofix or conversation")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the resulting artifact to this path")
	cmd.Flags().BoolVarP(&writeBack, "write", "w", false, "write the resulting artifact back to the source file")
	cmd.Flags().BoolVarP(&autoAccept, "yes", "y", false, "accept a staged diff without prompting")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print session counters on exit")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the agent's execution log as it arrives")

	return cmd
}

// runTask starts one task, renders progress until the stream closes and
// returns the final state. failed reports whether a failure was surfaced.
func runTask(app *app, instruction, source string, mode task.Mode, verbose bool) (*task.State, bool) {
	progress := newProgressPrinter()
	failed := false
	seenLogs := 0

	events := task.Events{
		OnUpdate: func(st *task.State) {
			if verbose {
				// The log is a full replacement per snapshot; print only
				// the entries we have not shown yet.
				if len(st.ExecutionLog) < seenLogs {
					seenLogs = len(st.ExecutionLog)
				}
				for ; seenLogs < len(st.ExecutionLog); seenLogs++ {
					entry := st.ExecutionLog[seenLogs]
					progress.finish()
					fmt.Println(gray(fmt.Sprintf("[%s] %s", entry.Node, entry.Message)))
				}
			}
			if st.IsRunning() {
				progress.update(st.ProgressPercent, st.ProgressLabel)
			}
		},
		OnInfo: func(msg string) {
			progress.finish()
			fmt.Print(app.markdown.render(msg))
		},
		OnError: func(err error) {
			progress.finish()
			failed = true
			fmt.Fprintln(os.Stderr, errorStyle(agenterr.UserMessage(err)))
		},
		OnTaskFailed: func(msg string) {
			progress.finish()
			failed = true
			fmt.Fprintln(os.Stderr, errorStyle(msg))
		},
	}

	handle := app.runner.Start(context.Background(), instruction, source, mode, events)

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

	return handle.State(), failed
}

// finishCompleted handles the artifact half of a completed task: the diff
// prompt in inspect mode and writing out the resulting text.
func finishCompleted(app *app, state *task.State, source, sourcePath, outputPath string, writeBack, autoAccept bool) error {
	if state.PendingDiff != nil {
		staged := state.PendingDiff
		added, deleted := diff.Stats(staged.Original, staged.Proposed)
		name := sourcePath
		if name == "" {
			name = "source"
		}

		fmt.Println()
		fmt.Print(diff.NewRenderer(isTTY()).Render(staged.Lines, name))
		fmt.Println(bold(diff.FormatStats(added, deleted)))

		if autoAccept || promptYesNo("Apply these changes?") {
			app.runner.Accept()
		} else {
			app.runner.Reject()
			fmt.Println(gray("changes discarded"))
			return nil
		}
	}

	artifact := app.runner.Current().Artifact
	if artifact == source {
		return nil
	}

	switch {
	case writeBack && sourcePath != "":
		if err := os.WriteFile(sourcePath, []byte(artifact), 0644); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		fmt.Println(successStyle("updated " + sourcePath))
	case outputPath != "":
		if err := os.WriteFile(outputPath, []byte(artifact), 0644); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}
		fmt.Println(successStyle("wrote " + outputPath))
	default:
		fmt.Println(artifact)
	}
	return nil
}

func promptYesNo(question string) bool {
	fmt.Printf("%s [y/N] ", bold(question))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
