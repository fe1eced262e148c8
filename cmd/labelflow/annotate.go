package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"labelflow/internal/dataset"
	"labelflow/internal/question"
	"labelflow/internal/session"
	"labelflow/internal/store"
)

const annotateHelp = `commands:
  n, next               next record
  p, prev               previous record
  s TITLE=VALUE; ...    submit answers and advance (multi-label: A|B)
  show                  show the current record again
  q, quit               save and exit
`

func newAnnotateCmd(a *app) *cobra.Command {
	var mappingPath, resume string

	cmd := &cobra.Command{
		Use:   "annotate [DATASET]",
		Short: "Annotate records interactively",
		Long: "Annotate the records of DATASET configured by a mapping file, or resume " +
			"a saved session with --resume. Progress is saved after every change.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			s, err := a.openOrStart(cmd, st, args, mappingPath, resume)
			if err != nil {
				return err
			}

			if _, err := s.Dispatch(session.Begin{}); err != nil {
				return err
			}

			if err := st.Save(ctx, s.Snapshot()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s\n", s.ID())

			return annotate(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s, st)
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVar(&resume, "resume", "", `session id to resume, or "latest"`)

	return cmd
}

// annotate runs the prompt loop until quit or end of input.
func annotate(ctx context.Context, in io.Reader, out io.Writer, s *session.Session, st *store.Store) error {
	if g := s.Guidelines(); g != "" {
		fmt.Fprintf(out, "guidelines: %s\n", g)
	}

	fmt.Fprint(out, annotateHelp)
	render(out, s)

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, quit, err := parseLine(line, s.Questions())
		if quit {
			break
		}

		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		if cmd == nil {
			render(out, s)
			continue
		}

		if _, err := s.Dispatch(cmd); err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		if err := st.Save(ctx, s.Snapshot()); err != nil {
			return err
		}

		render(out, s)
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "saved at record %d/%d\n", s.Cursor().Position+1, s.Records().Len())

	return st.Save(ctx, s.Snapshot())
}

// parseLine turns one prompt line into a command. A nil command with no
// error means show the current record.
func parseLine(line string, questions []question.Question) (session.Command, bool, error) {
	verb, rest, _ := strings.Cut(line, " ")

	switch strings.ToLower(verb) {
	case "q", "quit", "exit":
		return nil, true, nil
	case "show":
		return nil, false, nil
	case "s", "submit":
		answers, err := parseAnswers(rest, questions)
		if err != nil {
			return nil, false, err
		}

		return session.Submit{Answers: answers}, false, nil
	}

	d, err := session.ParseDirection(verb)
	if err != nil {
		return nil, false, errors.New("unknown command, see the list above")
	}

	return session.Navigate{Direction: d}, false, nil
}

// parseAnswers reads "Title=value; Other=value". Multi-label values list
// their labels separated by "|".
func parseAnswers(input string, questions []question.Question) (map[string]any, error) {
	types := make(map[string]question.Type, len(questions))
	for _, q := range questions {
		types[q.Title] = q.Type
	}

	answers := make(map[string]any)

	for _, part := range strings.Split(input, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		title, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("expected TITLE=VALUE, got %q", strings.TrimSpace(part))
		}

		title, value = strings.TrimSpace(title), strings.TrimSpace(value)

		if types[title] == question.TypeMultiLabel {
			answers[title] = strings.Split(value, "|")
			continue
		}

		answers[title] = value
	}

	return answers, nil
}

func render(out io.Writer, s *session.Session) {
	view, err := s.CurrentRecord()
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	status := ""
	if view.Complete {
		status = " (all records submitted)"
	}

	fmt.Fprintf(out, "\nrecord %d/%d%s\n", view.Position+1, view.Total, status)

	for _, k := range view.Fields.Keys() {
		v, _ := view.Fields.Get(k)
		fmt.Fprintf(out, "  %s: %s\n", k, dataset.FormatValue(v))
	}

	for _, q := range s.Questions() {
		current := "-"
		if v, ok := view.Answers.Get(q.Title); ok {
			current = dataset.FormatValue(v)
		}

		choices := strings.Join(q.Labels, " | ")
		if q.Type == question.TypeRating {
			choices = "1-5"
		}

		fmt.Fprintf(out, "  ? %s [%s] = %s\n", q.Title, choices, current)
	}
}
