// ticketctl submits a single support ticket from the command line. It drives
// the same workflow as the intake service: the draft is validated locally,
// sent once, and the resulting notices are written to stderr. The ticket id
// is the only thing printed to stdout, so the command composes in scripts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-intake/internal/client/ticketapi"
	"github.com/spec-kit/ticket-intake/internal/config"
	"github.com/spec-kit/ticket-intake/internal/domain"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/service"
	"github.com/spec-kit/ticket-intake/internal/worker"
)

// exitError carries a process exit status for failures already reported
// through notices.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func (e exitError) ExitCode() int { return e.code }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	title       string
	description string
	category    string
	priority    string
	ticketType  string
	email       string
	attach      []string
	token       string
	endpoint    string
	requireAuth bool
	simulate    bool
	delay       time.Duration
	timeout     time.Duration
	verbose     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var opts options
	flagSet := pflag.NewFlagSet("ticketctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.title, "title", "", "short summary of the problem")
	flagSet.StringVar(&opts.description, "description", "", "detailed description")
	flagSet.StringVar(&opts.category, "category", "", "technical, account, billing, feature, bug or other")
	flagSet.StringVar(&opts.priority, "priority", "", "low, medium, high or urgent")
	flagSet.StringVar(&opts.ticketType, "type", "", "incident, request, complaint or suggestion")
	flagSet.StringVar(&opts.email, "email", "", "address that receives the confirmation")
	flagSet.StringArrayVar(&opts.attach, "attach", nil, "file to attach (repeatable)")
	flagSet.StringVar(&opts.token, "token", os.Getenv("TICKET_API_TOKEN"), "bearer token for the ticket backend")
	flagSet.StringVar(&opts.endpoint, "endpoint", cfg.TicketAPI.Endpoint, "ticket creation endpoint")
	flagSet.BoolVar(&opts.requireAuth, "require-auth", cfg.TicketAPI.RequireAuth, "send the bearer token and refuse to submit without one")
	flagSet.BoolVar(&opts.simulate, "simulate", cfg.TicketAPI.Simulate, "do not call the backend; synthesise a ticket id")
	flagSet.DurationVar(&opts.delay, "delay", cfg.TicketAPI.SimulatedDelay, "simulated backend latency")
	flagSet.DurationVar(&opts.timeout, "timeout", cfg.TicketAPI.ClientTimeout, "transport timeout (0 waits indefinitely)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log transport details to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	draft, err := opts.draft()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, &writerSink{w: stderr}, nil, logger))

	wf := service.NewTicketWorkflow(service.WorkflowDependencies{
		Session:    domain.Session{Token: opts.token, Email: draft.UserEmail},
		Submitter:  opts.submitter(logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	patch := service.DraftPatch{
		Title:       &draft.Title,
		Description: &draft.Description,
		Category:    &draft.Category,
		Priority:    &draft.Priority,
		Type:        &draft.Type,
		UserEmail:   &draft.UserEmail,
	}
	if err := wf.Apply(patch); err != nil {
		return err
	}
	if err := wf.AddAttachments(draft.Attachments...); err != nil {
		return err
	}

	receipt, err := wf.Submit(ctx)
	if err != nil {
		return exitError{code: 1}
	}
	fmt.Fprintln(stdout, receipt.ID)
	return nil
}

func (o options) draft() (domain.TicketDraft, error) {
	category, err := domain.ParseCategory(o.category)
	if err != nil {
		return domain.TicketDraft{}, err
	}
	priority, err := domain.ParsePriority(o.priority)
	if err != nil {
		return domain.TicketDraft{}, err
	}
	ticketType, err := domain.ParseTicketType(o.ticketType)
	if err != nil {
		return domain.TicketDraft{}, err
	}
	d := domain.TicketDraft{
		Title:       o.title,
		Description: o.description,
		Category:    category,
		Priority:    priority,
		Type:        ticketType,
		UserEmail:   o.email,
	}
	for _, path := range o.attach {
		att, err := domain.NewFileAttachment(path)
		if err != nil {
			return domain.TicketDraft{}, fmt.Errorf("attachment %s: %w", path, err)
		}
		d.Attachments = append(d.Attachments, att)
	}
	return d, nil
}

func (o options) submitter(logger *zap.Logger) service.Submitter {
	if o.simulate {
		return ticketapi.NewSimulatedSubmitter(o.delay)
	}
	return ticketapi.NewHTTPSubmitter(ticketapi.HTTPConfig{
		Endpoint:    o.endpoint,
		RequireAuth: o.requireAuth,
		Timeout:     o.timeout,
	}, logger)
}

// writerSink prints notices one per line.
type writerSink struct {
	w io.Writer
}

func (s *writerSink) Deliver(_ context.Context, n domain.Notice) error {
	_, err := fmt.Fprintf(s.w, "[%s] %s: %s\n", n.Level, n.Title, n.Description)
	return err
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `ticketctl submits one support ticket and prints its id.

Every field is validated before anything is sent. Notices go to stderr;
the exit status is 1 when validation or the submission fails.

Usage:
  ticketctl --title T --description D --category C --priority P --type Y --email E [--attach FILE]...

Flags:
%s`, flagSet.FlagUsages())
}
