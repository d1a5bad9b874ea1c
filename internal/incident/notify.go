package incident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/programme-lv/executor/api"
)

const (
	maxStderrHeight = 10
	maxStderrWidth  = 100
)

// Report is the notice sent to operators about one incident.
type Report struct {
	ID        string    `json:"id"`
	Executor  string    `json:"executor"`
	ProblemID string    `json:"problem_id"`
	Dir       string    `json:"dir"`
	ExitCode  int64     `json:"exit_code"`
	Stderr    string    `json:"stderr"`
	Time      time.Time `json:"time"`
}

func NewReport(executor string, problemID string, dir string, exitCode int64, stderr []byte) Report {
	return Report{
		ID:        uuid.NewString(),
		Executor:  executor,
		ProblemID: problemID,
		Dir:       dir,
		ExitCode:  exitCode,
		Stderr:    api.TrimStrToRect(string(stderr), maxStderrHeight, maxStderrWidth),
		Time:      time.Now(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// Notifiers sends every report to each notifier in turn.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, r Report) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only logs the report.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Report) error {
	slog.Error("unexplained failure escalated",
		"id", r.ID,
		"executor", r.Executor,
		"problem", r.ProblemID,
		"dir", r.Dir,
		"exit_code", r.ExitCode,
	)
	return nil
}

type publisher interface {
	Publish(subj string, data []byte) error
}

// NatsNotifier publishes reports on a subject; *nats.Conn satisfies publisher.
type NatsNotifier struct {
	nc      publisher
	subject string
}

func NewNatsNotifier(nc publisher, subject string) *NatsNotifier {
	return &NatsNotifier{nc: nc, subject: subject}
}

func (n *NatsNotifier) Notify(_ context.Context, r Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal incident report: %w", err)
	}
	if err := n.nc.Publish(n.subject, b); err != nil {
		return fmt.Errorf("failed to publish incident report to NATS: %w", err)
	}
	return nil
}

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SqsNotifier sends reports to an SQS queue.
type SqsNotifier struct {
	client   sqsSender
	queueUrl string
}

func NewSqsNotifier(client sqsSender, queueUrl string) *SqsNotifier {
	return &SqsNotifier{client: client, queueUrl: queueUrl}
}

func (s *SqsNotifier) Notify(ctx context.Context, r Report) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal incident report: %w", err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueUrl),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		return fmt.Errorf("failed to send incident report to SQS: %w", err)
	}
	return nil
}
