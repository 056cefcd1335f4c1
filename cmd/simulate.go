package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abhisek/mathprobe/internal/assessment"
	"github.com/abhisek/mathprobe/internal/protocol"
	"github.com/abhisek/mathprobe/internal/rules"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay JSON frames through a session and print the replies",
	Long: "Reads one inbound JSON frame per line from --file (or stdin), feeds it through " +
		"the same decoding and session logic the server uses, and prints every outbound " +
		"message as a JSON line. Nothing is recorded.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		task, _ := cmd.Flags().GetString("task")
		file, _ := cmd.Flags().GetString("file")

		var in io.Reader = cmd.InOrStdin()
		if file != "" && file != "-" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open frames: %w", err)
			}
			defer f.Close()
			in = f
		}

		sim := &simulator{
			loader:       rules.NewFileLoader(cfg.RulesDir),
			task:         task,
			defaultTask:  cfg.DefaultTask,
			drawingProbe: cfg.DrawingProbe,
			out:          cmd.OutOrStdout(),
			errOut:       cmd.ErrOrStderr(),
			opts:         []assessment.Option{assessment.WithLogger(logger.With("component", "assessment"))},
		}
		return sim.run(in)
	},
}

func init() {
	simulateCmd.Flags().String("task", "", "Task id (default: first frame's task_id, then MATHPROBE_DEFAULT_TASK)")
	simulateCmd.Flags().String("file", "", "File of JSON frames, one per line (default stdin)")
}

// simulator drives one session from a stream of frames the way a single
// WebSocket connection would.
type simulator struct {
	loader       rules.Loader
	task         string
	defaultTask  string
	drawingProbe string
	out          io.Writer
	errOut       io.Writer
	opts         []assessment.Option

	session *assessment.Session
}

func (s *simulator) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if err := s.feed([]byte(raw)); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read frames: %w", err)
	}
	if s.session != nil && !s.session.Complete() {
		fmt.Fprintf(s.errOut, "input ended before the assessment completed (evidence: %v)\n", s.session.Evidence())
	}
	return nil
}

func (s *simulator) feed(raw []byte) error {
	frame, err := protocol.Decode(raw)
	if err != nil {
		return s.emit(protocol.ErrorMessage("Invalid data format. Please send JSON."))
	}

	if s.session == nil {
		if m, bad := frame.Event.(assessment.Malformed); bad {
			return s.emit(protocol.ErrorMessage(m.Reason))
		}
		task := s.task
		if task == "" {
			task = frame.TaskID
		}
		if task == "" {
			task = s.defaultTask
		}
		opts := append([]assessment.Option{assessment.WithDrawingProbe(s.drawingProbe)}, s.opts...)
		session, err := assessment.New(task, s.loader, opts...)
		if err != nil {
			return err
		}
		s.session = session
	}

	action := s.session.Handle(frame.Event)
	if action == nil {
		return nil
	}
	msg, err := protocol.NewMessage(action)
	if err != nil {
		return err
	}
	return s.emit(msg)
}

func (s *simulator) emit(msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}
